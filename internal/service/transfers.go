package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/finanzas/internal/common"
	"github.com/Veraticus/finanzas/internal/currency"
	"github.com/Veraticus/finanzas/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferInput is the writable shape of a transfer.
type TransferInput struct {
	Description   *string         `json:"description"`
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Type          string          `json:"type"`
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
}

// TransferView is a transfer decorated for display.
type TransferView struct {
	model.Transfer
	AmountFormatted string `json:"amount_formatted"`
}

// TransferService moves money between accounts.
type TransferService struct {
	*core
}

func transferView(t *model.Transfer) *TransferView {
	return &TransferView{Transfer: *t, AmountFormatted: currency.Format(t.Amount, t.Currency)}
}

// Create debits the source by amount plus fee and credits the destination,
// converting when the account currencies differ. Non-credit sources must
// cover the full debit.
func (s *TransferService) Create(ctx context.Context, in TransferInput) (*TransferView, error) {
	from := strings.TrimSpace(in.FromAccountID)
	to := strings.TrimSpace(in.ToAccountID)
	if from == "" {
		return nil, common.Invalid("from_account_id", "is required")
	}
	if to == "" {
		return nil, common.Invalid("to_account_id", "is required")
	}
	if from == to {
		return nil, common.Invalid("to_account_id", "must differ from the source account")
	}
	amount, err := requirePositive("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	transferType := model.TransferType(strings.ToLower(stringOr(in.Type, string(model.TransferInternal))))
	if !transferType.Valid() {
		return nil, common.Invalid("type", "must be internal or external")
	}
	date, err := parseDate("date", in.Date, s.today())
	if err != nil {
		return nil, err
	}
	description, err := optionalText("description", in.Description, 1, maxDescriptionLength)
	if err != nil {
		return nil, err
	}

	fee := decimal.Zero
	if transferType == model.TransferExternal {
		fee = model.RoundMoney(amount.Mul(model.ExternalFeeRate))
	}

	unlock := s.locks.Lock(from, to)
	defer unlock()

	transfer := &model.Transfer{
		ID:            uuid.NewString(),
		FromAccountID: from,
		ToAccountID:   to,
		Type:          transferType,
		Status:        model.TransferCompleted,
		Amount:        amount,
		Fee:           fee,
		Date:          date,
		Description:   description,
	}

	err = s.store.WithTx(ctx, func(tx Tx) error {
		source, err := loadActiveAccount(ctx, tx, "from_account_id", from)
		if err != nil {
			return err
		}
		target, err := loadActiveAccount(ctx, tx, "to_account_id", to)
		if err != nil {
			return err
		}

		debit := transfer.Debit()
		if !source.AllowsOverdraft() && source.Balance.LessThan(debit) {
			return fmt.Errorf("%w: %s holds %s, transfer needs %s", common.ErrInsufficientFunds,
				source.Name, currency.Format(source.Balance, source.Currency), currency.Format(debit, source.Currency))
		}

		transfer.Currency = source.Currency
		transfer.CreditedAmount = model.RoundMoney(s.converter.Convert(amount, source.Currency, target.Currency))
		if !transfer.CreditedAmount.IsPositive() {
			return common.Invalid("amount", "converts to nothing in %s", target.Currency)
		}

		if err := tx.AdjustAccountBalance(ctx, from, debit.Neg()); err != nil {
			return err
		}
		if err := tx.AdjustAccountBalance(ctx, to, transfer.CreditedAmount); err != nil {
			return err
		}
		return tx.CreateTransfer(ctx, transfer)
	})
	if err := observe("transfer", "create", err); err != nil {
		return nil, err
	}

	slog.Info("completed transfer",
		"id", transfer.ID, "from", from, "to", to,
		"amount", transfer.Amount.String(), "fee", transfer.Fee.String())
	return transferView(transfer), nil
}

// Get returns one transfer.
func (s *TransferService) Get(ctx context.Context, id string) (*TransferView, error) {
	transfer, err := s.store.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	return transferView(transfer), nil
}

// List returns transfers, newest first.
func (s *TransferService) List(ctx context.Context, filter TransferFilter) ([]TransferView, error) {
	transfers, err := s.store.ListTransfers(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]TransferView, len(transfers))
	for i := range transfers {
		views[i] = *transferView(&transfers[i])
	}
	return views, nil
}

func loadActiveAccount(ctx context.Context, q Queries, field, id string) (*model.Account, error) {
	account, err := q.GetAccount(ctx, id)
	if err != nil {
		return nil, referenceError(field, err)
	}
	if !account.IsActive {
		return nil, common.Invalid(field, "account %q is inactive", account.Name)
	}
	return account, nil
}
