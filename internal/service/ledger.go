package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Veraticus/finanzas/internal/common"
	"github.com/Veraticus/finanzas/internal/currency"
	"github.com/Veraticus/finanzas/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionInput is the writable shape of a transaction. Amount may be
// given with either sign; Type decides the stored sign.
type TransactionInput struct {
	Description        *string         `json:"description"`
	Location           *string         `json:"location"`
	RecurringFrequency *string         `json:"recurring_frequency"`
	AccountID          string          `json:"account_id"`
	CategoryID         string          `json:"category_id"`
	Type               string          `json:"type"`
	Date               string          `json:"date"`
	Tags               []string        `json:"tags"`
	Amount             decimal.Decimal `json:"amount"`
	IsRecurring        bool            `json:"is_recurring"`
}

// TransactionView is a transaction decorated for display.
type TransactionView struct {
	model.Transaction
	AmountFormatted string `json:"amount_formatted"`
}

// BalanceAudit compares an account's stored balance with its history.
type BalanceAudit struct {
	AccountID  string          `json:"account_id"`
	Currency   string          `json:"currency"`
	Stored     decimal.Decimal `json:"stored"`
	Expected   decimal.Decimal `json:"expected"`
	Drift      decimal.Decimal `json:"drift"`
	Consistent bool            `json:"consistent"`
}

// Ledger applies the balance-mutation protocol: every transaction write is
// paired with the matching balance change in one unit of work.
type Ledger struct {
	*core
}

func transactionView(t *model.Transaction) *TransactionView {
	return &TransactionView{Transaction: *t, AmountFormatted: currency.Format(t.Amount, t.Currency)}
}

// validate checks the input on its own, before anything is read.
func (l *Ledger) validate(in TransactionInput) (*model.Transaction, error) {
	if strings.TrimSpace(in.AccountID) == "" {
		return nil, common.Invalid("account_id", "is required")
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return nil, common.Invalid("category_id", "is required")
	}
	txnType := model.TransactionType(strings.ToLower(strings.TrimSpace(in.Type)))
	if !txnType.Valid() {
		return nil, common.Invalid("type", "must be income or expense")
	}
	signed := model.SignedAmount(txnType, in.Amount)
	if signed.IsZero() {
		return nil, common.Invalid("amount", "must not be zero")
	}
	if _, err := requireWithinLimit("amount", signed); err != nil {
		return nil, err
	}
	description, err := optionalText("description", in.Description, minDescriptionLength, maxDescriptionLength)
	if err != nil {
		return nil, err
	}
	location, err := optionalText("location", in.Location, 1, maxLocationLength)
	if err != nil {
		return nil, err
	}
	date, err := parseDate("date", in.Date, l.today())
	if err != nil {
		return nil, err
	}
	frequency, err := parseFrequency("recurring_frequency", in.RecurringFrequency)
	if err != nil {
		return nil, err
	}
	if in.IsRecurring && frequency == nil {
		return nil, common.Invalid("recurring_frequency", "is required for recurring transactions")
	}
	if !in.IsRecurring {
		frequency = nil
	}

	return &model.Transaction{
		AccountID:          strings.TrimSpace(in.AccountID),
		CategoryID:         strings.TrimSpace(in.CategoryID),
		Type:               txnType,
		Amount:             signed,
		Description:        description,
		Location:           location,
		Date:               date,
		Tags:               cleanTags(in.Tags),
		IsRecurring:        in.IsRecurring,
		RecurringFrequency: frequency,
	}, nil
}

// checkReferences verifies the account and category a transaction points to.
func checkReferences(ctx context.Context, q Queries, txn *model.Transaction) error {
	account, err := q.GetAccount(ctx, txn.AccountID)
	if err != nil {
		return referenceError("account_id", err)
	}
	if !account.IsActive {
		return common.Invalid("account_id", "account %q is inactive", account.Name)
	}

	category, err := q.GetCategory(ctx, txn.CategoryID)
	if err != nil {
		return referenceError("category_id", err)
	}
	if !category.IsActive {
		return common.Invalid("category_id", "category %q is inactive", category.Name)
	}
	if category.Type != txn.Type.CategoryType() {
		return common.Invalid("category_id", "%s transactions need an %s category, %q is %s",
			txn.Type, txn.Type.CategoryType(), category.Name, category.Type)
	}
	return nil
}

func referenceError(field string, err error) error {
	if isNotFound(err) {
		return common.Invalid(field, "%v", err)
	}
	return err
}

// insert validates references, stores txn and applies its contribution.
// Callers hold the account lock and run inside tx.
func (l *Ledger) insert(ctx context.Context, tx Tx, txn *model.Transaction) error {
	if err := checkReferences(ctx, tx, txn); err != nil {
		return err
	}
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if err := tx.CreateTransaction(ctx, txn); err != nil {
		return err
	}
	return tx.AdjustAccountBalance(ctx, txn.AccountID, txn.Contribution())
}

// Create records a transaction and moves its account balance.
func (l *Ledger) Create(ctx context.Context, in TransactionInput) (*TransactionView, error) {
	txn, err := l.validate(in)
	if err != nil {
		return nil, err
	}

	unlock := l.locks.Lock(txn.AccountID)
	defer unlock()

	var created *model.Transaction
	err = l.store.WithTx(ctx, func(tx Tx) error {
		if err := l.insert(ctx, tx, txn); err != nil {
			return err
		}
		created, err = tx.GetTransaction(ctx, txn.ID)
		return err
	})
	if err := observe("transaction", "create", err); err != nil {
		return nil, err
	}

	slog.Info("created transaction", "id", created.ID, "account_id", created.AccountID, "amount", created.Amount.String())
	return transactionView(created), nil
}

// Get returns one transaction.
func (l *Ledger) Get(ctx context.Context, id string) (*TransactionView, error) {
	txn, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	return transactionView(txn), nil
}

// List returns transactions matching filter, newest first.
func (l *Ledger) List(ctx context.Context, filter TransactionFilter) ([]TransactionView, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, common.Invalid("type", "must be income or expense")
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(filter.From.Time) {
		return nil, common.Invalid("to", "must not be before from")
	}
	filter.Currency = strings.ToUpper(filter.Currency)

	txns, err := l.store.ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]TransactionView, len(txns))
	for i := range txns {
		views[i] = *transactionView(&txns[i])
	}
	return views, nil
}

// Update rewrites a transaction. The original contribution is reversed on
// its account and the new one applied to the (possibly different) target.
func (l *Ledger) Update(ctx context.Context, id string, in TransactionInput) (*TransactionView, error) {
	next, err := l.validate(in)
	if err != nil {
		return nil, err
	}

	original, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := l.locks.Lock(original.AccountID, next.AccountID)
	defer unlock()

	var updated *model.Transaction
	err = l.store.WithTx(ctx, func(tx Tx) error {
		current, err := tx.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if current.AccountID != original.AccountID {
			return common.Conflict("transaction %s moved to another account concurrently", id)
		}
		if err := checkReferences(ctx, tx, next); err != nil {
			return err
		}

		next.ID = id
		next.ExternalID = current.ExternalID
		if err := tx.AdjustAccountBalance(ctx, current.AccountID, current.Contribution().Neg()); err != nil {
			return err
		}
		if err := tx.UpdateTransaction(ctx, next); err != nil {
			return err
		}
		if err := tx.AdjustAccountBalance(ctx, next.AccountID, next.Contribution()); err != nil {
			return err
		}

		updated, err = tx.GetTransaction(ctx, id)
		return err
	})
	if err := observe("transaction", "update", err); err != nil {
		return nil, err
	}
	return transactionView(updated), nil
}

// Delete removes a transaction and reverses its contribution.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	original, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	unlock := l.locks.Lock(original.AccountID)
	defer unlock()

	err = l.store.WithTx(ctx, func(tx Tx) error {
		current, err := tx.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if current.AccountID != original.AccountID {
			return common.Conflict("transaction %s moved to another account concurrently", id)
		}
		if err := tx.AdjustAccountBalance(ctx, current.AccountID, current.Contribution().Neg()); err != nil {
			return err
		}
		return tx.DeleteTransaction(ctx, id)
	})
	if err := observe("transaction", "delete", err); err != nil {
		return err
	}

	slog.Info("deleted transaction", "id", id, "account_id", original.AccountID)
	return nil
}

// VerifyBalance recomputes what an account's balance should be from its
// initial balance, transactions and completed transfers.
func (l *Ledger) VerifyBalance(ctx context.Context, accountID string) (*BalanceAudit, error) {
	unlock := l.locks.Lock(accountID)
	defer unlock()

	account, err := l.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	totals, err := l.store.GetLedgerTotals(ctx, accountID)
	if err != nil {
		return nil, err
	}

	expected := totals.Initial.Add(totals.Transactions).Add(totals.TransfersIn).Sub(totals.TransfersOut)
	drift := account.Balance.Sub(expected)
	audit := &BalanceAudit{
		AccountID:  accountID,
		Currency:   account.Currency,
		Stored:     account.Balance,
		Expected:   expected,
		Drift:      drift,
		Consistent: drift.IsZero(),
	}
	if !audit.Consistent {
		slog.Warn("account balance drift detected",
			"account_id", accountID, "stored", account.Balance.String(), "expected", expected.String())
	}
	return audit, nil
}
