package status

import (
	"testing"
	"time"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var today = model.NewDate(2024, time.June, 15)

func TestBudgetThresholds(t *testing.T) {
	amount := decimal.NewFromInt(100)

	tests := []struct {
		name      string
		spent     int64
		want      BudgetLevel
		remaining string
		pct       float64
	}{
		{name: "below threshold", spent: 79, want: BudgetGood, remaining: "21", pct: 79},
		{name: "at threshold", spent: 80, want: BudgetWarning, remaining: "20", pct: 80},
		{name: "past threshold", spent: 81, want: BudgetWarning, remaining: "19", pct: 81},
		{name: "at limit", spent: 100, want: BudgetExceeded, remaining: "0", pct: 100},
		{name: "over limit", spent: 140, want: BudgetExceeded, remaining: "0", pct: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Budget(amount, decimal.NewFromInt(tt.spent), model.DefaultAlertThreshold)
			assert.Equal(t, tt.want, h.Status)
			assert.Equal(t, tt.remaining, h.Remaining.String())
			assert.InDelta(t, tt.pct, h.Percentage, 0.001)
		})
	}
}

func TestBudgetStatusIsMonotonic(t *testing.T) {
	rank := map[BudgetLevel]int{BudgetGood: 0, BudgetWarning: 1, BudgetExceeded: 2}
	amount := decimal.NewFromInt(250)

	for _, threshold := range []float64{0, 0.5, 0.8, 1} {
		prev := -1
		for cents := int64(0); cents <= 30000; cents += 125 {
			h := Budget(amount, decimal.New(cents, -2), threshold)
			assert.GreaterOrEqual(t, rank[h.Status], prev, "threshold %v spent %d", threshold, cents)
			prev = rank[h.Status]

			again := Budget(amount, decimal.New(cents, -2), threshold)
			assert.Equal(t, h.Status, again.Status)
		}
	}
}

func TestPaymentState(t *testing.T) {
	yesterday := &model.Payment{DueDate: today.AddDays(-1), Status: model.PaymentPending}
	assert.Equal(t, PaymentState{DaysUntilDue: -1, IsOverdue: true}, Payment(yesterday, today))

	yesterday.Status = model.PaymentOverdue
	assert.True(t, Payment(yesterday, today).IsOverdue)

	dueToday := &model.Payment{DueDate: today, Status: model.PaymentPending}
	assert.Equal(t, 0, Payment(dueToday, today).DaysUntilDue)

	paidLate := &model.Payment{DueDate: today.AddDays(-10), Status: model.PaymentPaid}
	assert.False(t, Payment(paidLate, today).IsOverdue)
}

func TestGoalHealth(t *testing.T) {
	goal := func(current int64, daysLeft int, st model.GoalStatus) *model.Goal {
		return &model.Goal{
			TargetAmount:  decimal.NewFromInt(1000),
			CurrentAmount: decimal.NewFromInt(current),
			TargetDate:    today.AddDays(daysLeft),
			Status:        st,
		}
	}

	tests := []struct {
		goal *model.Goal
		name string
		want GoalHealth
	}{
		{name: "reached", goal: goal(1200, 90, model.GoalActive), want: GoalCompleted},
		{name: "past deadline", goal: goal(500, -1, model.GoalActive), want: GoalOverdue},
		{name: "nearly there", goal: goal(750, 200, model.GoalActive), want: GoalOnTrack},
		{name: "deadline close and little saved", goal: goal(400, 30, model.GoalActive), want: GoalAtRisk},
		{name: "halfway with time left", goal: goal(600, 10, model.GoalActive), want: GoalBehind},
		{name: "far deadline", goal: goal(100, 120, model.GoalActive), want: GoalBehind},
		{name: "paused keeps stored status", goal: goal(100, -5, model.GoalPaused), want: GoalPaused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Goal(tt.goal, today).Health)
		})
	}

	p := Goal(goal(1200, 3, model.GoalActive), today)
	assert.InDelta(t, 100, p.Progress, 0.001)
	assert.Equal(t, "0", p.Remaining.String())
	assert.Equal(t, 3, p.DaysRemaining)

	p = Goal(goal(250, 3, model.GoalActive), today)
	assert.InDelta(t, 25, p.Progress, 0.001)
	assert.Equal(t, "750", p.Remaining.String())
}
