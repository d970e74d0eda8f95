package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
)

// BalancesByCurrency sums active account balances per currency.
func (s *queries) BalancesByCurrency(ctx context.Context) ([]service.CurrencyBalance, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT currency, COALESCE(SUM(balance), 0), COUNT(*)
		FROM accounts
		WHERE is_active = 1
		GROUP BY currency
		ORDER BY currency`)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer func() { _ = rows.Close() }()

	balances := []service.CurrencyBalance{}
	for rows.Next() {
		var (
			b     service.CurrencyBalance
			total int64
		)
		if err := rows.Scan(&b.Currency, &total, &b.AccountCount); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		b.Balance = model.FromMinor(total)
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balances: %w", err)
	}
	return balances, nil
}

// FlowsByCurrency totals income and expenses per account currency between
// from and to inclusive. Expenses are reported as a positive amount. Like
// BalancesByCurrency it only counts active accounts.
func (s *queries) FlowsByCurrency(ctx context.Context, from, to model.Date) ([]service.CurrencyFlow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT a.currency,
			COALESCE(SUM(CASE WHEN t.amount > 0 THEN t.amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN t.amount < 0 THEN -t.amount ELSE 0 END), 0)
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.is_active = 1 AND t.date >= ? AND t.date <= ?
		GROUP BY a.currency
		ORDER BY a.currency`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query flows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	flows := []service.CurrencyFlow{}
	for rows.Next() {
		var (
			f                service.CurrencyFlow
			income, expenses int64
		)
		if err := rows.Scan(&f.Currency, &income, &expenses); err != nil {
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}
		f.Income = model.FromMinor(income)
		f.Expenses = model.FromMinor(expenses)
		flows = append(flows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flows: %w", err)
	}
	return flows, nil
}

// TotalsByCategory returns the absolute amount per category and currency
// between from and to inclusive, largest first. Inactive accounts are skipped.
func (s *queries) TotalsByCategory(ctx context.Context, from, to model.Date) ([]service.CategoryTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT c.id, c.name, c.color, c.type, a.currency, SUM(ABS(t.amount)), COUNT(*)
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		JOIN categories c ON c.id = t.category_id
		WHERE a.is_active = 1 AND t.date >= ? AND t.date <= ?
		GROUP BY c.id, a.currency
		ORDER BY SUM(ABS(t.amount)) DESC, c.name`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	totals := []service.CategoryTotal{}
	for rows.Next() {
		var (
			ct    service.CategoryTotal
			total int64
		)
		if err := rows.Scan(&ct.CategoryID, &ct.CategoryName, &ct.Color, &ct.Type,
			&ct.Currency, &total, &ct.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		ct.Total = model.FromMinor(total)
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category totals: %w", err)
	}
	return totals, nil
}

// DailyExpenses returns absolute expense totals per day and currency on
// active accounts.
func (s *queries) DailyExpenses(ctx context.Context, from, to model.Date) ([]service.DailyTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT t.date, a.currency, SUM(-t.amount)
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.is_active = 1 AND t.type = 'expense' AND t.date >= ? AND t.date <= ?
		GROUP BY t.date, a.currency
		ORDER BY t.date, a.currency`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	days := []service.DailyTotal{}
	for rows.Next() {
		var (
			d     service.DailyTotal
			total int64
		)
		if err := rows.Scan(&d.Date, &d.Currency, &total); err != nil {
			return nil, fmt.Errorf("failed to scan daily total: %w", err)
		}
		d.Total = model.FromMinor(total)
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily totals: %w", err)
	}
	return days, nil
}
