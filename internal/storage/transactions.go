package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
)

const transactionSelect = `
	SELECT t.id, t.account_id, t.category_id, t.amount, t.description, t.date, t.type,
		t.tags, t.is_recurring, t.recurring_frequency, t.location, t.external_id,
		t.created_at, t.updated_at, a.name, c.name, a.currency
	FROM transactions t
	JOIN accounts a ON a.id = t.account_id
	JOIN categories c ON c.id = t.category_id`

func scanTransaction(sc scanner) (*model.Transaction, error) {
	var (
		t                                model.Transaction
		amount                           int64
		tags                             string
		description, frequency, location sql.NullString
		externalID                       sql.NullString
	)
	if err := sc.Scan(&t.ID, &t.AccountID, &t.CategoryID, &amount, &description, &t.Date, &t.Type,
		&tags, &t.IsRecurring, &frequency, &location, &externalID,
		&t.CreatedAt, &t.UpdatedAt, &t.AccountName, &t.CategoryName, &t.Currency); err != nil {
		return nil, err
	}

	t.Amount = model.FromMinor(amount)
	t.Description = nullableString(description)
	t.Location = nullableString(location)
	t.ExternalID = nullableString(externalID)
	if frequency.Valid {
		f := model.Frequency(frequency.String)
		t.RecurringFrequency = &f
	}

	t.Tags = []string{}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}
	return &t, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(data), nil
}

// CreateTransaction inserts a transaction row. It does not touch balances.
func (s *queries) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateRecord(ctx, txn != nil, transactionID(txn), "transaction"); err != nil {
		return err
	}

	tags, err := encodeTags(txn.Tags)
	if err != nil {
		return err
	}

	ts := now()
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO transactions (
			id, account_id, category_id, amount, description, date, type,
			tags, is_recurring, recurring_frequency, location, external_id,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.AccountID, txn.CategoryID, model.ToMinor(txn.Amount), txn.Description,
		txn.Date, txn.Type, tags, txn.IsRecurring, txn.RecurringFrequency, txn.Location,
		txn.ExternalID, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", translateError(err))
	}

	txn.CreatedAt, txn.UpdatedAt = ts, ts
	return nil
}

// GetTransaction returns a transaction with its account and category names.
func (s *queries) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx, transactionSelect+` WHERE t.id = ?`, id)
	txn, err := scanTransaction(row)
	if err != nil {
		return nil, notFoundOr(err, "transaction", id)
	}
	return txn, nil
}

// ListTransactions returns transactions newest first.
func (s *queries) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.From != nil {
		where = append(where, "t.date >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		where = append(where, "t.date <= ?")
		args = append(args, *filter.To)
	}
	if filter.AccountID != "" {
		where = append(where, "t.account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.CategoryID != "" {
		where = append(where, "t.category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.Currency != "" {
		where = append(where, "a.currency = ?")
		args = append(args, filter.Currency)
	}
	if filter.Type != "" {
		where = append(where, "t.type = ?")
		args = append(args, filter.Type)
	}

	query := transactionSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.date DESC, t.created_at DESC"

	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filter.Offset)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	transactions := []model.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	logQuery("transactions", len(transactions))
	return transactions, nil
}

// UpdateTransaction overwrites every stored field of a transaction.
func (s *queries) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateRecord(ctx, txn != nil, transactionID(txn), "transaction"); err != nil {
		return err
	}

	tags, err := encodeTags(txn.Tags)
	if err != nil {
		return err
	}

	ts := now()
	result, err := s.q.ExecContext(ctx, `
		UPDATE transactions
		SET account_id = ?, category_id = ?, amount = ?, description = ?, date = ?, type = ?,
			tags = ?, is_recurring = ?, recurring_frequency = ?, location = ?, updated_at = ?
		WHERE id = ?`,
		txn.AccountID, txn.CategoryID, model.ToMinor(txn.Amount), txn.Description, txn.Date,
		txn.Type, tags, txn.IsRecurring, txn.RecurringFrequency, txn.Location, ts, txn.ID)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", translateError(err))
	}
	if err := requireAffected(result, "transaction", txn.ID); err != nil {
		return err
	}

	txn.UpdatedAt = ts
	return nil
}

// DeleteTransaction removes a transaction row. It does not touch balances.
func (s *queries) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", translateError(err))
	}
	return requireAffected(result, "transaction", id)
}

func transactionID(t *model.Transaction) string {
	if t == nil {
		return ""
	}
	return t.ID
}
