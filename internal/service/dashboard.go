package service

import (
	"context"
	"fmt"

	"github.com/Veraticus/finanzas/internal/currency"
	"github.com/Veraticus/finanzas/internal/model"
	"github.com/shopspring/decimal"
)

// Period is an inclusive date range.
type Period struct {
	From model.Date `json:"from"`
	To   model.Date `json:"to"`
}

// CurrencySummary is the dashboard line for one currency.
type CurrencySummary struct {
	Currency         string          `json:"currency"`
	BalanceFormatted string          `json:"balance_formatted"`
	Balance          decimal.Decimal `json:"balance"`
	Income           decimal.Decimal `json:"income"`
	Expenses         decimal.Decimal `json:"expenses"`
	Net              decimal.Decimal `json:"net"`
	AccountCount     int             `json:"account_count"`
}

// Consolidated totals every currency in the base currency.
type Consolidated struct {
	Currency         string          `json:"currency"`
	BalanceFormatted string          `json:"balance_formatted"`
	Balance          decimal.Decimal `json:"balance"`
	Income           decimal.Decimal `json:"income"`
	Expenses         decimal.Decimal `json:"expenses"`
	Net              decimal.Decimal `json:"net"`
}

// Dashboard is the aggregated view for the current calendar month.
type Dashboard struct {
	Period       Period            `json:"period"`
	Consolidated Consolidated      `json:"consolidated"`
	Currencies   []CurrencySummary `json:"currencies"`
	Income       []CategoryTotal   `json:"income_by_category"`
	Expenses     []CategoryTotal   `json:"expenses_by_category"`
	Daily        []DailyTotal      `json:"daily_expenses"`
	OpenPayments int               `json:"open_payments"`
}

// DashboardService aggregates balances and flows.
type DashboardService struct {
	*core
}

// Get builds the dashboard for the month containing today.
func (s *DashboardService) Get(ctx context.Context) (*Dashboard, error) {
	today := s.today()
	period := Period{From: today.StartOfMonth(), To: today.EndOfMonth()}

	balances, err := s.store.BalancesByCurrency(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load balances: %w", err)
	}
	flows, err := s.store.FlowsByCurrency(ctx, period.From, period.To)
	if err != nil {
		return nil, fmt.Errorf("failed to load flows: %w", err)
	}
	categories, err := s.store.TotalsByCategory(ctx, period.From, period.To)
	if err != nil {
		return nil, fmt.Errorf("failed to load category totals: %w", err)
	}
	daily, err := s.store.DailyExpenses(ctx, period.From, period.To)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily expenses: %w", err)
	}
	payments, err := s.store.ListPayments(ctx, PaymentFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	dash := &Dashboard{
		Period:     period,
		Currencies: mergeCurrencies(balances, flows),
		Income:     []CategoryTotal{},
		Expenses:   []CategoryTotal{},
		Daily:      daily,
	}
	for _, ct := range categories {
		if ct.Type == model.CategoryTypeIncome {
			dash.Income = append(dash.Income, ct)
		} else {
			dash.Expenses = append(dash.Expenses, ct)
		}
	}
	for _, p := range payments {
		if p.Status.Open() {
			dash.OpenPayments++
		}
	}

	var balanceAmounts, incomeAmounts, expenseAmounts []currency.Amount
	for _, c := range dash.Currencies {
		balanceAmounts = append(balanceAmounts, currency.Amount{Currency: c.Currency, Value: c.Balance})
		incomeAmounts = append(incomeAmounts, currency.Amount{Currency: c.Currency, Value: c.Income})
		expenseAmounts = append(expenseAmounts, currency.Amount{Currency: c.Currency, Value: c.Expenses})
	}
	total := s.converter.Total(balanceAmounts, s.base)
	income := s.converter.Total(incomeAmounts, s.base)
	expenses := s.converter.Total(expenseAmounts, s.base)
	dash.Consolidated = Consolidated{
		Currency:         s.base,
		Balance:          total,
		BalanceFormatted: currency.Format(total, s.base),
		Income:           income,
		Expenses:         expenses,
		Net:              income.Sub(expenses),
	}
	return dash, nil
}

// mergeCurrencies joins balances and flows into one line per currency.
func mergeCurrencies(balances []CurrencyBalance, flows []CurrencyFlow) []CurrencySummary {
	index := make(map[string]int)
	out := make([]CurrencySummary, 0, len(balances))
	for _, b := range balances {
		index[b.Currency] = len(out)
		out = append(out, CurrencySummary{
			Currency:     b.Currency,
			Balance:      b.Balance,
			AccountCount: b.AccountCount,
		})
	}
	for _, f := range flows {
		i, ok := index[f.Currency]
		if !ok {
			i = len(out)
			index[f.Currency] = i
			out = append(out, CurrencySummary{Currency: f.Currency})
		}
		out[i].Income = f.Income
		out[i].Expenses = f.Expenses
	}
	for i := range out {
		out[i].Net = out[i].Income.Sub(out[i].Expenses)
		out[i].BalanceFormatted = currency.Format(out[i].Balance, out[i].Currency)
	}
	return out
}
