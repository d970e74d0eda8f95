package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
	"github.com/shopspring/decimal"
)

const budgetSelect = `
	SELECT b.id, b.name, b.category_id, b.amount, b.period, b.start_date, b.end_date,
		b.currency, b.alert_threshold, b.is_active, b.created_at, b.updated_at, c.name
	FROM budgets b
	JOIN categories c ON c.id = b.category_id`

func scanBudget(sc scanner) (*model.Budget, error) {
	var (
		b       model.Budget
		amount  int64
		endDate sql.Null[model.Date]
	)
	if err := sc.Scan(&b.ID, &b.Name, &b.CategoryID, &amount, &b.Period, &b.StartDate, &endDate,
		&b.Currency, &b.AlertThreshold, &b.IsActive, &b.CreatedAt, &b.UpdatedAt, &b.CategoryName); err != nil {
		return nil, err
	}
	b.Amount = model.FromMinor(amount)
	b.EndDate = nullableDate(endDate)
	return &b, nil
}

// CreateBudget inserts a budget.
func (s *queries) CreateBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateRecord(ctx, budget != nil, budgetID(budget), "budget"); err != nil {
		return err
	}

	ts := now()
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO budgets (
			id, name, category_id, amount, period, start_date, end_date,
			currency, alert_threshold, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		budget.ID, budget.Name, budget.CategoryID, model.ToMinor(budget.Amount), budget.Period,
		budget.StartDate, budget.EndDate, budget.Currency, budget.AlertThreshold, budget.IsActive, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", translateError(err))
	}

	budget.CreatedAt, budget.UpdatedAt = ts, ts
	return nil
}

// GetBudget returns a budget by id.
func (s *queries) GetBudget(ctx context.Context, id string) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	budget, err := scanBudget(s.q.QueryRowContext(ctx, budgetSelect+` WHERE b.id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "budget", id)
	}
	return budget, nil
}

// ListBudgets returns budgets ordered by start date.
func (s *queries) ListBudgets(ctx context.Context, filter service.BudgetFilter) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.ActiveOnly {
		where = append(where, "b.is_active = 1")
	}
	if filter.Currency != "" {
		where = append(where, "b.currency = ?")
		args = append(args, filter.Currency)
	}
	if filter.CategoryID != "" {
		where = append(where, "b.category_id = ?")
		args = append(args, filter.CategoryID)
	}

	query := budgetSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY b.start_date DESC, c.name"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	budgets := []model.Budget{}
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, *budget)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}

	logQuery("budgets", len(budgets))
	return budgets, nil
}

// UpdateBudget overwrites a budget.
func (s *queries) UpdateBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateRecord(ctx, budget != nil, budgetID(budget), "budget"); err != nil {
		return err
	}

	ts := now()
	result, err := s.q.ExecContext(ctx, `
		UPDATE budgets
		SET name = ?, category_id = ?, amount = ?, period = ?, start_date = ?, end_date = ?,
			currency = ?, alert_threshold = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		budget.Name, budget.CategoryID, model.ToMinor(budget.Amount), budget.Period, budget.StartDate,
		budget.EndDate, budget.Currency, budget.AlertThreshold, budget.IsActive, ts, budget.ID)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", translateError(err))
	}
	if err := requireAffected(result, "budget", budget.ID); err != nil {
		return err
	}

	budget.UpdatedAt = ts
	return nil
}

// DeleteBudget removes a budget.
func (s *queries) DeleteBudget(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return requireAffected(result, "budget", id)
}

// FindOverlappingBudget returns another active budget for the same category
// and currency whose window intersects budget's, or nil when there is none.
// Open-ended windows are treated as running to MaxDate.
func (s *queries) FindOverlappingBudget(ctx context.Context, budget *model.Budget) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if budget == nil {
		return nil, fmt.Errorf("%w: budget", ErrNilParameter)
	}

	row := s.q.QueryRowContext(ctx, budgetSelect+`
		WHERE b.category_id = ?
			AND b.currency = ?
			AND b.is_active = 1
			AND b.id <> ?
			AND b.start_date <= ?
			AND COALESCE(b.end_date, ?) >= ?
		ORDER BY b.start_date
		LIMIT 1`,
		budget.CategoryID, budget.Currency, budget.ID, budget.WindowEnd(), model.MaxDate, budget.StartDate)

	existing, err := scanBudget(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check overlapping budgets: %w", err)
	}
	return existing, nil
}

// SumExpenses returns the absolute total of expense transactions in a
// category whose account uses currency, between from and to inclusive.
func (s *queries) SumExpenses(ctx context.Context, categoryID, currency string, from, to model.Date) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}

	var total int64
	err := s.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(-t.amount), 0)
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.category_id = ?
			AND a.currency = ?
			AND t.type = 'expense'
			AND t.date >= ?
			AND t.date <= ?`,
		categoryID, currency, from, to).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum expenses: %w", err)
	}
	return model.FromMinor(total), nil
}

func budgetID(b *model.Budget) string {
	if b == nil {
		return ""
	}
	return b.ID
}
