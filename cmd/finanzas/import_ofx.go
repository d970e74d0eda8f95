package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/finanzas/internal/cli"
	"github.com/Veraticus/finanzas/internal/common"
	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/ofx"
	"github.com/Veraticus/finanzas/internal/service"
	"github.com/Veraticus/finanzas/internal/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type importOptions struct {
	account         string
	incomeCategory  string
	expenseCategory string
	dryRun          bool
	noCheckpoint    bool
}

func importOFXCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import statement lines from OFX or QFX (Quicken) files exported from your bank.
Each line becomes an income or expense transaction on the target account.
Lines imported before are skipped, so importing the same file twice is safe.`,
		Example: `  # Import a single file into the checking account
  finanzas import-ofx --account Checking --income Salary --expense Food ~/Downloads/jan.qfx

  # Import every QFX file in a directory
  finanzas import-ofx --account Checking --income Salary --expense Food ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportOFX(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.account, "account", "a", "", "Target account id or name")
	cmd.Flags().StringVar(&opts.incomeCategory, "income", "", "Income category id or name for deposits")
	cmd.Flags().StringVar(&opts.expenseCategory, "expense", "", "Expense category id or name for debits")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "d", false, "Preview import without saving")
	cmd.Flags().BoolVar(&opts.noCheckpoint, "no-checkpoint", false, "Skip the automatic checkpoint before importing")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("income")
	_ = cmd.MarkFlagRequired("expense")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string, opts importOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	statements, err := parseStatements(ctx, files)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	services := newServices(store, cfg)

	account, err := resolveAccount(ctx, services, opts.account)
	if err != nil {
		return err
	}
	income, err := resolveCategory(ctx, store, opts.incomeCategory, model.CategoryTypeIncome)
	if err != nil {
		return err
	}
	expense, err := resolveCategory(ctx, store, opts.expenseCategory, model.CategoryTypeExpense)
	if err != nil {
		return err
	}

	entries, err := statementEntries(statements, account.Currency)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, cli.FormatWarning("No transactions found in any file"))
		return nil
	}

	if opts.dryRun {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Would import up to %d entries into %s", len(entries), account.Name)))
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{e.Date.String(), e.Description, e.Amount.StringFixed(model.MoneyScale)})
		}
		fmt.Fprintln(out, cli.RenderTable([]string{"DATE", "DESCRIPTION", "AMOUNT"}, rows))
		return nil
	}

	if !opts.noCheckpoint {
		if manager, err := store.NewCheckpointManager(); err != nil {
			slog.Warn("skipping auto-checkpoint", "error", err)
		} else if _, err := manager.AutoCheckpoint(ctx, "import"); err != nil {
			slog.Warn("failed to create auto-checkpoint", "error", err)
		}
	}

	bar := newImportProgressBar(cmd.ErrOrStderr(), len(entries))
	result, err := services.Importer.Import(ctx, entries, service.ImportOptions{
		AccountID:         account.ID,
		IncomeCategoryID:  income.ID,
		ExpenseCategoryID: expense.ID,
		OnProgress: func(done, _ int) {
			if err := bar.Set(done); err != nil {
				slog.Debug("failed to update progress bar", "error", err)
			}
		},
	})
	_ = bar.Finish()
	if err != nil {
		if result != nil {
			common.LogError(err, "import stopped", common.Fields{
				"account_id": account.ID,
				"created":    result.Created,
				"skipped":    result.Skipped,
			})
		}
		return fmt.Errorf("import failed: %w", err)
	}

	common.LogInfo("import finished", common.Fields{
		"files":      len(files),
		"account_id": account.ID,
		"created":    result.Created,
		"skipped":    result.Skipped,
	})

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d transactions into %s (%d already present)",
		result.Created, account.Name, result.Skipped)))
	return nil
}

// expandFiles resolves glob patterns into the files they name.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, common.NewUserError("no files found to import", common.ErrNotFound)
	}
	return files, nil
}

func parseStatements(ctx context.Context, files []string) ([]ofx.Statement, error) {
	parser := ofx.NewParser()

	var statements []ofx.Statement
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		parsed, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}

		slog.Info("Processed file", "file", filepath.Base(path), "statements", len(parsed))
		statements = append(statements, parsed...)
	}
	return statements, nil
}

// statementEntries flattens statements into import entries. External ids are
// scoped by the statement's account so two banks reusing a FITID do not clash.
func statementEntries(statements []ofx.Statement, accountCurrency string) ([]service.ImportEntry, error) {
	seen := make(map[string]bool)

	var entries []service.ImportEntry
	for _, stmt := range statements {
		if stmt.Currency != "" && !strings.EqualFold(stmt.Currency, accountCurrency) {
			return nil, common.NewUserError(
				fmt.Sprintf("statement for %s is in %s but the account uses %s", stmt.AccountID, stmt.Currency, accountCurrency),
				common.ErrValidation)
		}
		for _, e := range stmt.Entries {
			externalID := stmt.AccountID + ":" + e.FITID
			if e.FITID == "" {
				externalID = ""
			} else if seen[externalID] {
				continue
			}
			seen[externalID] = true

			entries = append(entries, service.ImportEntry{
				Date:        e.Date,
				ExternalID:  externalID,
				Description: e.Description(),
				Amount:      e.Amount,
			})
		}
	}
	return entries, nil
}

func resolveAccount(ctx context.Context, services *service.Services, ref string) (*service.AccountView, error) {
	account, err := services.Accounts.Get(ctx, ref)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	accounts, err := services.Accounts.List(ctx, service.AccountFilter{})
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if strings.EqualFold(accounts[i].Name, ref) {
			return &accounts[i], nil
		}
	}
	return nil, common.NewUserError(fmt.Sprintf("account %q not found", ref), common.ErrNotFound)
}

func resolveCategory(ctx context.Context, store *storage.SQLiteStorage, ref string, categoryType model.CategoryType) (*model.Category, error) {
	category, err := store.GetCategory(ctx, ref)
	if err == nil {
		if category.Type != categoryType {
			return nil, common.NewUserError(fmt.Sprintf("category %q is not an %s category", category.Name, categoryType), common.ErrValidation)
		}
		return category, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	category, err = store.FindCategoryByName(ctx, ref, categoryType)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, common.NewUserError(fmt.Sprintf("%s category %q not found", categoryType, ref), common.ErrNotFound)
	}
	return category, nil
}

func newImportProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing transactions...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}
