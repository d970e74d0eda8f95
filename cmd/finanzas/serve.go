package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/finanzas/internal/api"
	"github.com/Veraticus/finanzas/internal/certs"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger JSON API",
		Long: `Start the HTTP API. Overdue payments are reconciled once at startup;
use the reconcile endpoint or command to run the sweep again.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate (overrides server.tls)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	addr := cfg.ServerAddr
	if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
		addr = flagAddr
	}

	useTLS := cfg.TLS
	if cmd.Flags().Changed("tls") {
		useTLS, _ = cmd.Flags().GetBool("tls")
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	services := newServices(store, cfg)
	if escalated, err := services.Payments.Reconcile(ctx); err != nil {
		slog.Warn("startup reconciliation failed", "error", err)
	} else if escalated > 0 {
		slog.Info("escalated overdue payments", "count", escalated)
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           api.NewHandler(services).Router(cfg.Metrics),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	listen := server.ListenAndServe
	if useTLS {
		tlsConfig, err := certs.NewStore(cfg.CertDir).TLSConfig()
		if err != nil {
			return fmt.Errorf("failed to load TLS certificate: %w", err)
		}
		server.TLSConfig = tlsConfig
		listen = func() error { return server.ListenAndServeTLS("", "") }
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr, "tls", useTLS, "database", cfg.DatabasePath, "metrics", cfg.Metrics)
		if err := listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
