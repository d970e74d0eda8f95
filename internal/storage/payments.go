package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
)

const paymentColumns = `id, name, description, amount, currency, due_date, status, is_recurring,
	frequency, account_id, category_id, transaction_id, paid_date, created_at, updated_at`

func scanPayment(sc scanner) (*model.Payment, error) {
	var (
		p                                    model.Payment
		amount                               int64
		description, frequency               sql.NullString
		accountID, categoryID, transactionID sql.NullString
		paidDate                             sql.Null[model.Date]
	)
	if err := sc.Scan(&p.ID, &p.Name, &description, &amount, &p.Currency, &p.DueDate, &p.Status,
		&p.IsRecurring, &frequency, &accountID, &categoryID, &transactionID, &paidDate,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	p.Amount = model.FromMinor(amount)
	p.Description = nullableString(description)
	p.AccountID = nullableString(accountID)
	p.CategoryID = nullableString(categoryID)
	p.TransactionID = nullableString(transactionID)
	p.PaidDate = nullableDate(paidDate)
	if frequency.Valid {
		f := model.Frequency(frequency.String)
		p.Frequency = &f
	}
	return &p, nil
}

// CreatePayment inserts a scheduled payment.
func (s *queries) CreatePayment(ctx context.Context, payment *model.Payment) error {
	if err := validateRecord(ctx, payment != nil, paymentID(payment), "payment"); err != nil {
		return err
	}

	ts := now()
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID, payment.Name, payment.Description, model.ToMinor(payment.Amount), payment.Currency,
		payment.DueDate, payment.Status, payment.IsRecurring, payment.Frequency, payment.AccountID,
		payment.CategoryID, payment.TransactionID, payment.PaidDate, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", translateError(err))
	}

	payment.CreatedAt, payment.UpdatedAt = ts, ts
	return nil
}

// GetPayment returns a payment by id.
func (s *queries) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	payment, err := scanPayment(s.q.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "payment", id)
	}
	return payment, nil
}

// ListPayments returns payments ordered by due date.
func (s *queries) ListPayments(ctx context.Context, filter service.PaymentFilter) ([]model.Payment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.Recurring != nil {
		where = append(where, "is_recurring = ?")
		args = append(args, boolToInt(*filter.Recurring))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Currency != "" {
		where = append(where, "currency = ?")
		args = append(args, filter.Currency)
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY due_date, name"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	payments := []model.Payment{}
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	logQuery("payments", len(payments))
	return payments, nil
}

// UpdatePayment overwrites a payment.
func (s *queries) UpdatePayment(ctx context.Context, payment *model.Payment) error {
	if err := validateRecord(ctx, payment != nil, paymentID(payment), "payment"); err != nil {
		return err
	}

	ts := now()
	result, err := s.q.ExecContext(ctx, `
		UPDATE payments
		SET name = ?, description = ?, amount = ?, currency = ?, due_date = ?, status = ?,
			is_recurring = ?, frequency = ?, account_id = ?, category_id = ?, transaction_id = ?,
			paid_date = ?, updated_at = ?
		WHERE id = ?`,
		payment.Name, payment.Description, model.ToMinor(payment.Amount), payment.Currency,
		payment.DueDate, payment.Status, payment.IsRecurring, payment.Frequency, payment.AccountID,
		payment.CategoryID, payment.TransactionID, payment.PaidDate, ts, payment.ID)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", translateError(err))
	}
	if err := requireAffected(result, "payment", payment.ID); err != nil {
		return err
	}

	payment.UpdatedAt = ts
	return nil
}

// DeletePayment removes a payment.
func (s *queries) DeletePayment(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return requireAffected(result, "payment", id)
}

// MarkOverduePayments moves pending payments due before today to overdue.
// Running it twice in a day changes nothing the second time.
func (s *queries) MarkOverduePayments(ctx context.Context, today model.Date) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	result, err := s.q.ExecContext(ctx, `
		UPDATE payments
		SET status = 'overdue', updated_at = ?
		WHERE status = 'pending' AND due_date < ?`, now(), today)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue payments: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n > 0 {
		slog.Info("marked payments overdue", "count", n, "as_of", today.String())
	}
	return n, nil
}

func paymentID(p *model.Payment) string {
	if p == nil {
		return ""
	}
	return p.ID
}
