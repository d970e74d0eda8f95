package service

import (
	"context"
	"strings"

	"github.com/Veraticus/finanzas/internal/common"
	"github.com/Veraticus/finanzas/internal/currency"
	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/status"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GoalInput is the writable shape of a goal.
type GoalInput struct {
	Description   *string         `json:"description"`
	Name          string          `json:"name"`
	TargetDate    string          `json:"target_date"`
	Priority      string          `json:"priority"`
	Status        string          `json:"status"`
	Currency      string          `json:"currency"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
}

// GoalView is a goal with its derived progress.
type GoalView struct {
	model.Goal
	status.GoalProgress
	TargetFormatted  string `json:"target_formatted"`
	CurrentFormatted string `json:"current_formatted"`
}

// GoalService manages savings goals.
type GoalService struct {
	*core
}

func (s *GoalService) view(g *model.Goal) *GoalView {
	return &GoalView{
		Goal:             *g,
		GoalProgress:     status.Goal(g, s.today()),
		TargetFormatted:  currency.Format(g.TargetAmount, g.Currency),
		CurrentFormatted: currency.Format(g.CurrentAmount, g.Currency),
	}
}

func (s *GoalService) validate(in GoalInput) (*model.Goal, error) {
	name, err := validateName("name", in.Name, maxAccountNameLength)
	if err != nil {
		return nil, err
	}
	description, err := optionalText("description", in.Description, 1, maxDescriptionLength)
	if err != nil {
		return nil, err
	}
	target, err := requirePositive("target_amount", in.TargetAmount)
	if err != nil {
		return nil, err
	}
	current := model.RoundMoney(in.CurrentAmount)
	if current.IsNegative() {
		return nil, common.Invalid("current_amount", "must not be negative")
	}
	if _, err := requireWithinLimit("current_amount", current); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.TargetDate) == "" {
		return nil, common.Invalid("target_date", "is required")
	}
	targetDate, err := parseDate("target_date", in.TargetDate, model.Date{})
	if err != nil {
		return nil, err
	}
	priority := model.GoalPriority(strings.ToLower(stringOr(in.Priority, string(model.PriorityMedium))))
	if !priority.Valid() {
		return nil, common.Invalid("priority", "must be low, medium or high")
	}
	goalStatus := model.GoalStatus(strings.ToLower(stringOr(in.Status, string(model.GoalActive))))
	if !goalStatus.Valid() {
		return nil, common.Invalid("status", "must be active, completed, paused or cancelled")
	}
	code, err := validateCurrency("currency", in.Currency)
	if err != nil {
		return nil, err
	}

	return &model.Goal{
		Name:          name,
		Description:   description,
		TargetAmount:  target,
		CurrentAmount: current,
		TargetDate:    targetDate,
		Priority:      priority,
		Status:        goalStatus,
		Currency:      code,
	}, nil
}

// Create adds a goal.
func (s *GoalService) Create(ctx context.Context, in GoalInput) (*GoalView, error) {
	goal, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	goal.ID = uuid.NewString()

	if err := observe("goal", "create", s.store.CreateGoal(ctx, goal)); err != nil {
		return nil, err
	}
	return s.view(goal), nil
}

// Get returns one decorated goal.
func (s *GoalService) Get(ctx context.Context, id string) (*GoalView, error) {
	goal, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(goal), nil
}

// List returns decorated goals matching filter.
func (s *GoalService) List(ctx context.Context, filter GoalFilter) ([]GoalView, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, common.Invalid("status", "must be active, completed, paused or cancelled")
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, common.Invalid("priority", "must be low, medium or high")
	}
	filter.Currency = strings.ToUpper(filter.Currency)

	goals, err := s.store.ListGoals(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]GoalView, len(goals))
	for i := range goals {
		views[i] = *s.view(&goals[i])
	}
	return views, nil
}

// Update rewrites a goal.
func (s *GoalService) Update(ctx context.Context, id string, in GoalInput) (*GoalView, error) {
	goal, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	var updated *model.Goal
	err = s.store.WithTx(ctx, func(tx Tx) error {
		existing, err := tx.GetGoal(ctx, id)
		if err != nil {
			return err
		}
		goal.ID = id
		goal.CreatedAt = existing.CreatedAt
		if err := tx.UpdateGoal(ctx, goal); err != nil {
			return err
		}
		updated = goal
		return nil
	})
	if err := observe("goal", "update", err); err != nil {
		return nil, err
	}
	return s.view(updated), nil
}

// Contribute adjusts the saved amount. Negative contributions withdraw but
// the total never drops below zero. Reaching the target completes an
// active goal.
func (s *GoalService) Contribute(ctx context.Context, id string, amount decimal.Decimal) (*GoalView, error) {
	amount = model.RoundMoney(amount)
	if amount.IsZero() {
		return nil, common.Invalid("amount", "must not be zero")
	}
	if _, err := requireWithinLimit("amount", amount); err != nil {
		return nil, err
	}

	var updated *model.Goal
	err := s.store.WithTx(ctx, func(tx Tx) error {
		goal, err := tx.GetGoal(ctx, id)
		if err != nil {
			return err
		}
		if goal.Status == model.GoalCancelled {
			return common.Conflict("goal %q is cancelled", goal.Name)
		}

		next := goal.CurrentAmount.Add(amount)
		if next.IsNegative() {
			return common.Invalid("amount", "would leave %s saved", currency.Format(next, goal.Currency))
		}
		if !model.WithinLimit(next) {
			return common.Invalid("amount", "would exceed %s saved", currency.Format(model.MaxAmount, goal.Currency))
		}
		goal.CurrentAmount = next
		if goal.Status == model.GoalActive && next.GreaterThanOrEqual(goal.TargetAmount) {
			goal.Status = model.GoalCompleted
		}
		if err := tx.UpdateGoal(ctx, goal); err != nil {
			return err
		}
		updated = goal
		return nil
	})
	if err := observe("goal", "contribute", err); err != nil {
		return nil, err
	}
	return s.view(updated), nil
}

// Delete removes a goal.
func (s *GoalService) Delete(ctx context.Context, id string) error {
	return observe("goal", "delete", s.store.DeleteGoal(ctx, id))
}
