package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/finanzas/internal/config"
	"github.com/Veraticus/finanzas/internal/currency"
	"github.com/Veraticus/finanzas/internal/service"
	"github.com/Veraticus/finanzas/internal/storage"
)

// initStorage opens the configured database and applies pending migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newServices wires the ledger services with the configured currency setup.
func newServices(store service.Storage, c *config.Config) *service.Services {
	rates := currency.DefaultRates().WithOverrides(c.Rates)
	return service.New(store,
		service.WithConverter(currency.NewConverter(rates)),
		service.WithBaseCurrency(c.BaseCurrency),
	)
}
