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

// AccountInput is the writable shape of an account.
type AccountInput struct {
	IsActive       *bool           `json:"is_active"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Currency       string          `json:"currency"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// AccountView is an account decorated for display.
type AccountView struct {
	model.Account
	BalanceFormatted string `json:"balance_formatted"`
}

// AccountService manages accounts. Balances are never written here.
type AccountService struct {
	*core
}

func (s *AccountService) view(a *model.Account) *AccountView {
	return &AccountView{Account: *a, BalanceFormatted: currency.Format(a.Balance, a.Currency)}
}

func (s *AccountService) validate(in AccountInput) (*model.Account, error) {
	name, err := validateName("name", in.Name, maxAccountNameLength)
	if err != nil {
		return nil, err
	}
	accountType := model.AccountType(strings.ToLower(strings.TrimSpace(in.Type)))
	if !accountType.Valid() {
		return nil, common.Invalid("type", "unknown account type %q", in.Type)
	}
	code, err := validateCurrency("currency", in.Currency)
	if err != nil {
		return nil, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return &model.Account{
		Name:     name,
		Type:     accountType,
		Currency: code,
		IsActive: active,
	}, nil
}

// Create opens a new account. Its balance starts at the initial balance.
func (s *AccountService) Create(ctx context.Context, in AccountInput) (*AccountView, error) {
	account, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	initial, err := requireWithinLimit("initial_balance", model.RoundMoney(in.InitialBalance))
	if err != nil {
		return nil, err
	}
	if account.Type == model.AccountCredit && initial.IsNegative() {
		return nil, common.Invalid("initial_balance", "credit accounts cannot start with a negative balance")
	}
	account.ID = uuid.NewString()
	account.InitialBalance = initial
	account.Balance = initial

	err = s.store.WithTx(ctx, func(tx Tx) error {
		if account.IsActive {
			if err := ensureUniqueActiveName(ctx, tx, account.Name, ""); err != nil {
				return err
			}
		}
		return tx.CreateAccount(ctx, account)
	})
	if err := observe("account", "create", err); err != nil {
		return nil, err
	}

	slog.Info("created account", "id", account.ID, "name", account.Name, "currency", account.Currency)
	return s.view(account), nil
}

// Get returns one account.
func (s *AccountService) Get(ctx context.Context, id string) (*AccountView, error) {
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(account), nil
}

// List returns accounts matching filter.
func (s *AccountService) List(ctx context.Context, filter AccountFilter) ([]AccountView, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, common.Invalid("type", "unknown account type %q", filter.Type)
	}
	filter.Currency = strings.ToUpper(filter.Currency)

	accounts, err := s.store.ListAccounts(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]AccountView, len(accounts))
	for i := range accounts {
		views[i] = *s.view(&accounts[i])
	}
	return views, nil
}

// Update changes an account's descriptive fields. The currency can only
// change while the account has no history.
func (s *AccountService) Update(ctx context.Context, id string, in AccountInput) (*AccountView, error) {
	changes, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var updated *model.Account
	err = s.store.WithTx(ctx, func(tx Tx) error {
		account, err := tx.GetAccount(ctx, id)
		if err != nil {
			return err
		}

		if changes.Currency != account.Currency {
			if err := ensureNoHistory(ctx, tx, id); err != nil {
				return err
			}
		}
		if changes.Type == model.AccountCredit && account.Type != model.AccountCredit && account.Balance.IsNegative() {
			return common.Invalid("type", "account with a negative balance cannot become a credit account")
		}
		if changes.IsActive {
			if err := ensureUniqueActiveName(ctx, tx, changes.Name, id); err != nil {
				return err
			}
		}

		account.Name = changes.Name
		account.Type = changes.Type
		account.Currency = changes.Currency
		account.IsActive = changes.IsActive
		if err := tx.UpdateAccount(ctx, account); err != nil {
			return err
		}
		updated = account
		return nil
	})
	if err := observe("account", "update", err); err != nil {
		return nil, err
	}
	return s.view(updated), nil
}

// Delete removes an account that has no transactions or transfers.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	err := s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.GetAccount(ctx, id); err != nil {
			return err
		}
		if err := ensureNoHistory(ctx, tx, id); err != nil {
			return err
		}
		return tx.DeleteAccount(ctx, id)
	})
	if err := observe("account", "delete", err); err != nil {
		return err
	}

	slog.Info("deleted account", "id", id)
	return nil
}

func ensureUniqueActiveName(ctx context.Context, q Queries, name, selfID string) error {
	existing, err := q.FindActiveAccountByName(ctx, name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return fmt.Errorf("%w: an active account named %q already exists", common.ErrDuplicateEntry, name)
	}
	return nil
}

func ensureNoHistory(ctx context.Context, q Queries, id string) error {
	txns, err := q.CountAccountTransactions(ctx, id)
	if err != nil {
		return err
	}
	if txns > 0 {
		return common.Conflict("account has %d transactions", txns)
	}
	transfers, err := q.CountAccountTransfers(ctx, id)
	if err != nil {
		return err
	}
	if transfers > 0 {
		return common.Conflict("account has %d transfers", transfers)
	}
	return nil
}
