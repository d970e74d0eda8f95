package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/finanzas/internal/common"
	"github.com/Veraticus/finanzas/internal/model"
	"github.com/shopspring/decimal"
)

// ImportEntry is one statement line to book into an account.
type ImportEntry struct {
	Date        model.Date
	ExternalID  string
	Description string
	Amount      decimal.Decimal
}

// ImportOptions says where imported entries are booked.
type ImportOptions struct {
	OnProgress        func(done, total int)
	AccountID         string
	IncomeCategoryID  string
	ExpenseCategoryID string
}

// ImportResult counts what an import did.
type ImportResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// Importer books statement entries through the ledger. Entries whose
// external id is already present are skipped, so re-importing a statement
// is harmless.
type Importer struct {
	*core
	ledger *Ledger
}

// Import books entries into opts.AccountID. Income goes to the income
// category, expenses to the expense category.
func (im *Importer) Import(ctx context.Context, entries []ImportEntry, opts ImportOptions) (*ImportResult, error) {
	if strings.TrimSpace(opts.AccountID) == "" {
		return nil, common.Invalid("account_id", "is required")
	}
	if opts.IncomeCategoryID == "" || opts.ExpenseCategoryID == "" {
		return nil, common.Invalid("category_id", "income and expense categories are required")
	}

	unlock := im.locks.Lock(opts.AccountID)
	defer unlock()

	result := &ImportResult{}
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		created, err := im.book(ctx, entry, opts)
		if err != nil {
			importedTransactions.WithLabelValues("failed").Inc()
			return result, fmt.Errorf("entry %d (%s): %w", i+1, entry.ExternalID, err)
		}
		if created {
			result.Created++
			importedTransactions.WithLabelValues("created").Inc()
		} else {
			result.Skipped++
			importedTransactions.WithLabelValues("skipped").Inc()
		}

		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(entries))
		}
	}

	slog.Info("imported statement", "account_id", opts.AccountID, "created", result.Created, "skipped", result.Skipped)
	return result, nil
}

func (im *Importer) book(ctx context.Context, entry ImportEntry, opts ImportOptions) (bool, error) {
	amount := model.RoundMoney(entry.Amount)
	if amount.IsZero() {
		return false, nil
	}
	if _, err := requireWithinLimit("amount", amount); err != nil {
		return false, err
	}

	txnType := model.TypeOf(amount)
	categoryID := opts.ExpenseCategoryID
	if txnType == model.TransactionIncome {
		categoryID = opts.IncomeCategoryID
	}

	txn := &model.Transaction{
		AccountID:   opts.AccountID,
		CategoryID:  categoryID,
		Type:        txnType,
		Amount:      amount,
		Date:        entry.Date,
		Description: importDescription(entry.Description),
		Tags:        []string{"imported"},
	}
	if entry.ExternalID != "" {
		id := entry.ExternalID
		txn.ExternalID = &id
	}

	err := im.store.WithTx(ctx, func(tx Tx) error {
		return im.ledger.insert(ctx, tx, txn)
	})
	if errors.Is(err, common.ErrDuplicateEntry) {
		slog.Debug("skipping already imported entry", "external_id", entry.ExternalID)
		return false, nil
	}
	return err == nil, observe("transaction", "import", err)
}

// importDescription fits a statement memo into the description bounds.
func importDescription(s string) *string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) < minDescriptionLength {
		return nil
	}
	if utf8.RuneCountInString(s) > maxDescriptionLength {
		s = string([]rune(s)[:maxDescriptionLength])
	}
	return &s
}
