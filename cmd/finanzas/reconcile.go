package main

import (
	"fmt"

	"github.com/Veraticus/finanzas/internal/cli"
	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Mark pending payments past their due date as overdue",
		Long: `Run the overdue sweep once. Pending payments whose due date is before
today become overdue. Running it again without new overdue payments
changes nothing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			escalated, err := newServices(store, cfg).Payments.Reconcile(ctx)
			if err != nil {
				return fmt.Errorf("reconciliation failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%d payments marked overdue", escalated)))
			return nil
		},
	}
}
