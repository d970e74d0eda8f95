package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/finanzas/internal/common"
	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, name, type, balance, initial_balance, currency, is_active, created_at, updated_at`

func scanAccount(sc scanner) (*model.Account, error) {
	var (
		a                model.Account
		balance, initial int64
	)
	if err := sc.Scan(&a.ID, &a.Name, &a.Type, &balance, &initial, &a.Currency,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Balance = model.FromMinor(balance)
	a.InitialBalance = model.FromMinor(initial)
	return &a, nil
}

// CreateAccount inserts a new account. Timestamps are set here.
func (s *queries) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := validateRecord(ctx, account != nil, accountID(account), "account"); err != nil {
		return err
	}

	ts := now()
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID, account.Name, account.Type,
		model.ToMinor(account.Balance), model.ToMinor(account.InitialBalance),
		account.Currency, account.IsActive, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", translateError(err))
	}

	account.CreatedAt, account.UpdatedAt = ts, ts
	return nil
}

// GetAccount returns an account by id, active or not.
func (s *queries) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	account, err := scanAccount(row)
	if err != nil {
		return nil, notFoundOr(err, "account", id)
	}
	return account, nil
}

// ListAccounts returns accounts ordered by name.
func (s *queries) ListAccounts(ctx context.Context, filter service.AccountFilter) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if !filter.IncludeInactive {
		where = append(where, "is_active = 1")
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Currency != "" {
		where = append(where, "currency = ?")
		args = append(args, filter.Currency)
	}

	query := `SELECT ` + accountColumns + ` FROM accounts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, created_at"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	accounts := []model.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	logQuery("accounts", len(accounts))
	return accounts, nil
}

// FindActiveAccountByName returns the active account with the given name, or
// nil when none exists.
func (s *queries) FindActiveAccountByName(ctx context.Context, name string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE name = ? AND is_active = 1`, name)
	account, err := scanAccount(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query account by name: %w", err)
	}
	return account, nil
}

// UpdateAccount writes the descriptive fields of an account. Balance only
// moves through AdjustAccountBalance.
func (s *queries) UpdateAccount(ctx context.Context, account *model.Account) error {
	if err := validateRecord(ctx, account != nil, accountID(account), "account"); err != nil {
		return err
	}

	ts := now()
	result, err := s.q.ExecContext(ctx, `
		UPDATE accounts
		SET name = ?, type = ?, currency = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		account.Name, account.Type, account.Currency, account.IsActive, ts, account.ID)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", translateError(err))
	}
	if err := requireAffected(result, "account", account.ID); err != nil {
		return err
	}

	account.UpdatedAt = ts
	return nil
}

// AdjustAccountBalance adds delta to the stored balance. A change that would
// push the balance past model.MaxBalanceMinor is rejected and leaves the row
// untouched.
func (s *queries) AdjustAccountBalance(ctx context.Context, id string, delta decimal.Decimal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	limit := model.FromMinor(model.MaxBalanceMinor)
	if delta.Abs().GreaterThan(limit) {
		return common.Invalid("amount", "would move the balance of account %s past %s", id, limit.String())
	}

	minor := model.ToMinor(delta)
	result, err := s.q.ExecContext(ctx, `
		UPDATE accounts SET balance = balance + ?, updated_at = ?
		WHERE id = ? AND abs(balance + ?) <= ?`,
		minor, now(), id, minor, model.MaxBalanceMinor)
	if err != nil {
		return fmt.Errorf("failed to adjust account balance: %w", translateError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.GetAccount(ctx, id); err != nil {
		return err
	}
	return common.Invalid("amount", "would move the balance of account %s past %s", id, limit.String())
}

// DeleteAccount removes an account row.
func (s *queries) DeleteAccount(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", translateError(err))
	}
	return requireAffected(result, "account", id)
}

// CountAccountTransactions returns how many transactions reference the account.
func (s *queries) CountAccountTransactions(ctx context.Context, id string) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM transactions WHERE account_id = ?`, id)
}

// CountAccountTransfers returns how many transfers touch the account.
func (s *queries) CountAccountTransfers(ctx context.Context, id string) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM transfers WHERE from_account_id = ? OR to_account_id = ?`, id, id)
}

// GetLedgerTotals recomputes the components of an account's balance from
// its history.
func (s *queries) GetLedgerTotals(ctx context.Context, id string) (*service.LedgerTotals, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var initial, txns, in, out int64
	err := s.q.QueryRowContext(ctx, `
		SELECT
			a.initial_balance,
			COALESCE((SELECT SUM(amount) FROM transactions WHERE account_id = a.id), 0),
			COALESCE((SELECT SUM(credited_amount) FROM transfers WHERE to_account_id = a.id AND status = 'completed'), 0),
			COALESCE((SELECT SUM(amount + fee) FROM transfers WHERE from_account_id = a.id AND status = 'completed'), 0)
		FROM accounts a
		WHERE a.id = ?`, id).Scan(&initial, &txns, &in, &out)
	if err != nil {
		return nil, notFoundOr(err, "account", id)
	}

	return &service.LedgerTotals{
		Initial:      model.FromMinor(initial),
		Transactions: model.FromMinor(txns),
		TransfersIn:  model.FromMinor(in),
		TransfersOut: model.FromMinor(out),
	}, nil
}

func (s *queries) count(ctx context.Context, query string, args ...any) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}

func accountID(a *model.Account) string {
	if a == nil {
		return ""
	}
	return a.ID
}
