package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/finanzas/internal/common"
	"github.com/Veraticus/finanzas/internal/currency"
	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/status"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetInput is the writable shape of a budget.
type BudgetInput struct {
	EndDate        *string         `json:"end_date"`
	AlertThreshold *float64        `json:"alert_threshold"`
	IsActive       *bool           `json:"is_active"`
	Name           string          `json:"name"`
	CategoryID     string          `json:"category_id"`
	Period         string          `json:"period"`
	StartDate      string          `json:"start_date"`
	Currency       string          `json:"currency"`
	Amount         decimal.Decimal `json:"amount"`
}

// BudgetView is a budget with its derived spending state.
type BudgetView struct {
	model.Budget
	status.BudgetHealth
	AmountFormatted    string `json:"amount_formatted"`
	SpentFormatted     string `json:"spent_formatted"`
	RemainingFormatted string `json:"remaining_formatted"`
}

// BudgetListFilter adds the derived status to the stored filters.
type BudgetListFilter struct {
	BudgetFilter
	Status status.BudgetLevel
}

// BudgetService manages budgets and evaluates their spending.
type BudgetService struct {
	*core
}

func (s *BudgetService) validate(in BudgetInput) (*model.Budget, error) {
	amount, err := requirePositive("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return nil, common.Invalid("category_id", "is required")
	}
	period := model.Frequency(strings.ToLower(stringOr(in.Period, string(model.FrequencyMonthly))))
	if !period.Valid() {
		return nil, common.Invalid("period", "unknown period %q", in.Period)
	}
	code, err := validateCurrency("currency", in.Currency)
	if err != nil {
		return nil, err
	}
	start, err := parseDate("start_date", in.StartDate, s.today().StartOfMonth())
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalDate("end_date", in.EndDate)
	if err != nil {
		return nil, err
	}
	if end != nil && end.Before(start.Time) {
		return nil, common.Invalid("end_date", "must not be before start_date")
	}

	threshold := model.DefaultAlertThreshold
	if in.AlertThreshold != nil {
		threshold = *in.AlertThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, common.Invalid("alert_threshold", "must be between 0 and 1")
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return &model.Budget{
		Name:           strings.TrimSpace(in.Name),
		CategoryID:     strings.TrimSpace(in.CategoryID),
		Amount:         amount,
		Period:         period,
		StartDate:      start,
		EndDate:        end,
		Currency:       code,
		AlertThreshold: threshold,
		IsActive:       active,
	}, nil
}

// checkBudget verifies the category and that no other active budget covers
// the same category, currency and dates.
func checkBudget(ctx context.Context, q Queries, budget *model.Budget) error {
	category, err := q.GetCategory(ctx, budget.CategoryID)
	if err != nil {
		return referenceError("category_id", err)
	}
	if category.Type != model.CategoryTypeExpense {
		return common.Invalid("category_id", "budgets need an expense category, %q is %s", category.Name, category.Type)
	}
	if budget.Name == "" {
		budget.Name = category.Name
	}
	if !budget.IsActive {
		return nil
	}

	existing, err := q.FindOverlappingBudget(ctx, budget)
	if err != nil {
		return err
	}
	if existing != nil {
		return common.Conflict("budget %q already covers %s in %s from %s", existing.Name,
			category.Name, budget.Currency, existing.StartDate)
	}
	return nil
}

func (s *BudgetService) decorate(ctx context.Context, q Queries, b *model.Budget) (*BudgetView, error) {
	spent, err := q.SumExpenses(ctx, b.CategoryID, b.Currency, b.StartDate, b.WindowEnd())
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate budget %s: %w", b.ID, err)
	}
	health := status.Budget(b.Amount, spent, b.AlertThreshold)
	return &BudgetView{
		Budget:             *b,
		BudgetHealth:       health,
		AmountFormatted:    currency.Format(b.Amount, b.Currency),
		SpentFormatted:     currency.Format(health.Spent, b.Currency),
		RemainingFormatted: currency.Format(health.Remaining, b.Currency),
	}, nil
}

// Create adds a budget.
func (s *BudgetService) Create(ctx context.Context, in BudgetInput) (*BudgetView, error) {
	budget, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	budget.ID = uuid.NewString()

	var view *BudgetView
	err = s.store.WithTx(ctx, func(tx Tx) error {
		if err := checkBudget(ctx, tx, budget); err != nil {
			return err
		}
		if err := tx.CreateBudget(ctx, budget); err != nil {
			return err
		}
		stored, err := tx.GetBudget(ctx, budget.ID)
		if err != nil {
			return err
		}
		view, err = s.decorate(ctx, tx, stored)
		return err
	})
	if err := observe("budget", "create", err); err != nil {
		return nil, err
	}
	return view, nil
}

// Get returns one decorated budget.
func (s *BudgetService) Get(ctx context.Context, id string) (*BudgetView, error) {
	budget, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, s.store, budget)
}

// List returns decorated budgets, optionally narrowed by derived status.
func (s *BudgetService) List(ctx context.Context, filter BudgetListFilter) ([]BudgetView, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, common.Invalid("status", "must be good, warning or exceeded")
	}
	filter.Currency = strings.ToUpper(filter.Currency)

	budgets, err := s.store.ListBudgets(ctx, filter.BudgetFilter)
	if err != nil {
		return nil, err
	}

	views := make([]BudgetView, 0, len(budgets))
	for i := range budgets {
		view, err := s.decorate(ctx, s.store, &budgets[i])
		if err != nil {
			return nil, err
		}
		if filter.Status != "" && view.Status != filter.Status {
			continue
		}
		views = append(views, *view)
	}
	return views, nil
}

// Update rewrites a budget, applying the same checks as Create.
func (s *BudgetService) Update(ctx context.Context, id string, in BudgetInput) (*BudgetView, error) {
	budget, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	budget.ID = id

	var view *BudgetView
	err = s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.GetBudget(ctx, id); err != nil {
			return err
		}
		if err := checkBudget(ctx, tx, budget); err != nil {
			return err
		}
		if err := tx.UpdateBudget(ctx, budget); err != nil {
			return err
		}
		stored, err := tx.GetBudget(ctx, id)
		if err != nil {
			return err
		}
		view, err = s.decorate(ctx, tx, stored)
		return err
	})
	if err := observe("budget", "update", err); err != nil {
		return nil, err
	}
	return view, nil
}

// Delete removes a budget.
func (s *BudgetService) Delete(ctx context.Context, id string) error {
	return observe("budget", "delete", s.store.DeleteBudget(ctx, id))
}
