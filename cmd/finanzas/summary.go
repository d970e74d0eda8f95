package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/finanzas/internal/cli"
	"github.com/Veraticus/finanzas/internal/common"
	"github.com/Veraticus/finanzas/internal/currency"
	"github.com/Veraticus/finanzas/internal/service"
	"github.com/spf13/cobra"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show balances and this month's totals",
		RunE:  runSummary,
	}

	cmd.Flags().Bool("verify", false, "Recompute every balance from its history and report drift")

	return cmd
}

func runSummary(cmd *cobra.Command, _ []string) error {
	verify, _ := cmd.Flags().GetBool("verify")
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	services := newServices(store, cfg)

	accounts, err := services.Accounts.List(ctx, service.AccountFilter{})
	if err != nil {
		return err
	}
	dash, err := services.Dashboard.Get(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Summary %s to %s", dash.Period.From, dash.Period.To)))

	if len(accounts) == 0 {
		fmt.Fprintln(out, cli.SubtleStyle.Render("No accounts yet."))
	} else {
		rows := make([][]string, 0, len(accounts))
		for _, a := range accounts {
			rows = append(rows, []string{a.Name, string(a.Type), a.Currency, cli.FormatAmount(a.Balance, a.BalanceFormatted)})
		}
		fmt.Fprintln(out, cli.RenderTable([]string{"ACCOUNT", "TYPE", "CURRENCY", "BALANCE"}, rows))
	}

	c := dash.Consolidated
	totals := strings.Join([]string{
		fmt.Sprintf("Balance:  %s", cli.FormatAmount(c.Balance, c.BalanceFormatted)),
		fmt.Sprintf("Income:   %s", currency.Format(c.Income, c.Currency)),
		fmt.Sprintf("Expenses: %s", currency.Format(c.Expenses, c.Currency)),
		fmt.Sprintf("Net:      %s", cli.FormatAmount(c.Net, currency.Format(c.Net, c.Currency))),
		fmt.Sprintf("Open payments: %d", dash.OpenPayments),
	}, "\n")
	fmt.Fprintln(out, cli.RenderBox("Consolidated in "+c.Currency, totals))

	if !verify {
		return nil
	}

	drifted := 0
	for _, a := range accounts {
		audit, err := services.Ledger.VerifyBalance(ctx, a.ID)
		if err != nil {
			return err
		}
		if audit.Consistent {
			continue
		}
		drifted++
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%s: stored %s, expected %s",
			a.Name, currency.Format(audit.Stored, audit.Currency), currency.Format(audit.Expected, audit.Currency))))
	}
	if drifted > 0 {
		return common.NewUserError(fmt.Sprintf("%d accounts have balance drift", drifted), common.ErrDatabaseCorrupted)
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("All %d balances match their history", len(accounts))))
	return nil
}
