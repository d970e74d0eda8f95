package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
)

const transferColumns = `id, from_account_id, to_account_id, amount, fee, credited_amount,
	currency, type, status, description, date, created_at`

func scanTransfer(sc scanner) (*model.Transfer, error) {
	var (
		t                     model.Transfer
		amount, fee, credited int64
		description           sql.NullString
	)
	if err := sc.Scan(&t.ID, &t.FromAccountID, &t.ToAccountID, &amount, &fee, &credited,
		&t.Currency, &t.Type, &t.Status, &description, &t.Date, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Amount = model.FromMinor(amount)
	t.Fee = model.FromMinor(fee)
	t.CreditedAmount = model.FromMinor(credited)
	t.Description = nullableString(description)
	return &t, nil
}

// CreateTransfer records a transfer. Balances are adjusted by the caller
// within the same unit of work.
func (s *queries) CreateTransfer(ctx context.Context, transfer *model.Transfer) error {
	if err := validateRecord(ctx, transfer != nil, transferID(transfer), "transfer"); err != nil {
		return err
	}

	ts := now()
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO transfers (`+transferColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		transfer.ID, transfer.FromAccountID, transfer.ToAccountID, model.ToMinor(transfer.Amount),
		model.ToMinor(transfer.Fee), model.ToMinor(transfer.CreditedAmount), transfer.Currency,
		transfer.Type, transfer.Status, transfer.Description, transfer.Date, ts)
	if err != nil {
		return fmt.Errorf("failed to create transfer: %w", translateError(err))
	}

	transfer.CreatedAt = ts
	return nil
}

// GetTransfer returns a transfer by id.
func (s *queries) GetTransfer(ctx context.Context, id string) (*model.Transfer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	transfer, err := scanTransfer(s.q.QueryRowContext(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "transfer", id)
	}
	return transfer, nil
}

// ListTransfers returns transfers newest first.
func (s *queries) ListTransfers(ctx context.Context, filter service.TransferFilter) ([]model.Transfer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + transferColumns + ` FROM transfers`
	var args []any
	if filter.AccountID != "" {
		query += " WHERE from_account_id = ? OR to_account_id = ?"
		args = append(args, filter.AccountID, filter.AccountID)
	}
	query += " ORDER BY date DESC, created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	transfers := []model.Transfer{}
	for rows.Next() {
		transfer, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, *transfer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfers: %w", err)
	}

	logQuery("transfers", len(transfers))
	return transfers, nil
}

func transferID(t *model.Transfer) string {
	if t == nil {
		return ""
	}
	return t.ID
}
