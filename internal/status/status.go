// Package status computes read-time health information for payments,
// budgets and goals. Nothing here is persisted.
package status

import (
	"github.com/Veraticus/finanzas/internal/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PaymentState is the derived due-date view of a payment.
type PaymentState struct {
	DaysUntilDue int  `json:"days_until_due"`
	IsOverdue    bool `json:"is_overdue"`
}

// Payment derives the due-date state of p as seen on today.
func Payment(p *model.Payment, today model.Date) PaymentState {
	days := today.DaysUntil(p.DueDate)
	return PaymentState{
		DaysUntilDue: days,
		IsOverdue:    days < 0 && p.Status.Open(),
	}
}

// BudgetLevel is the alert level of a budget.
type BudgetLevel string

const (
	BudgetGood     BudgetLevel = "good"
	BudgetWarning  BudgetLevel = "warning"
	BudgetExceeded BudgetLevel = "exceeded"
)

// Valid reports whether l is a known level.
func (l BudgetLevel) Valid() bool {
	return l == BudgetGood || l == BudgetWarning || l == BudgetExceeded
}

// BudgetHealth is the derived spending view of a budget.
type BudgetHealth struct {
	Status     BudgetLevel     `json:"status"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
}

// Budget evaluates spent against amount. threshold is the warning ratio in
// [0, 1]; percentage is capped at 100.
func Budget(amount, spent decimal.Decimal, threshold float64) BudgetHealth {
	spent = spent.Abs()

	pct := hundred
	if amount.IsPositive() {
		pct = decimal.Min(spent.Mul(hundred).Div(amount), hundred)
	}

	level := BudgetGood
	switch {
	case pct.GreaterThanOrEqual(hundred):
		level = BudgetExceeded
	case pct.GreaterThanOrEqual(decimal.NewFromFloat(threshold).Mul(hundred)):
		level = BudgetWarning
	}

	f, _ := pct.Round(2).Float64()
	return BudgetHealth{
		Spent:      model.RoundMoney(spent),
		Remaining:  model.RoundMoney(decimal.Max(amount.Sub(spent), decimal.Zero)),
		Percentage: f,
		Status:     level,
	}
}

// GoalHealth projects a goal's stored status onto its progress and deadline.
type GoalHealth string

const (
	GoalOnTrack   GoalHealth = "on_track"
	GoalAtRisk    GoalHealth = "at_risk"
	GoalBehind    GoalHealth = "behind"
	GoalOverdue   GoalHealth = "overdue"
	GoalCompleted GoalHealth = "completed"
	GoalPaused    GoalHealth = "paused"
	GoalCancelled GoalHealth = "cancelled"
)

// GoalProgress is the derived progress view of a goal.
type GoalProgress struct {
	Health        GoalHealth      `json:"health"`
	Remaining     decimal.Decimal `json:"remaining"`
	Progress      float64         `json:"progress"`
	DaysRemaining int             `json:"days_remaining"`
}

// Goal derives progress for g as seen on today. The health projection only
// applies to active goals; other goals report their stored status.
func Goal(g *model.Goal, today model.Date) GoalProgress {
	progress := hundred
	if g.TargetAmount.IsPositive() {
		progress = decimal.Min(g.CurrentAmount.Mul(hundred).Div(g.TargetAmount), hundred)
	}
	days := today.DaysUntil(g.TargetDate)

	var health GoalHealth
	switch {
	case g.Status != model.GoalActive:
		health = GoalHealth(g.Status)
	case progress.GreaterThanOrEqual(hundred):
		health = GoalCompleted
	case days < 0:
		health = GoalOverdue
	case progress.GreaterThanOrEqual(decimal.NewFromInt(75)):
		health = GoalOnTrack
	case days <= 30 && progress.LessThan(decimal.NewFromInt(50)):
		health = GoalAtRisk
	default:
		health = GoalBehind
	}

	f, _ := progress.Round(2).Float64()
	return GoalProgress{
		Progress:      f,
		Remaining:     model.RoundMoney(decimal.Max(g.TargetAmount.Sub(g.CurrentAmount), decimal.Zero)),
		DaysRemaining: days,
		Health:        health,
	}
}
