package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoalPriority orders goals for display.
type GoalPriority string

const (
	PriorityLow    GoalPriority = "low"
	PriorityMedium GoalPriority = "medium"
	PriorityHigh   GoalPriority = "high"
)

// Valid reports whether p is a known priority.
func (p GoalPriority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// GoalStatus is the stored lifecycle state of a goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
	GoalCancelled GoalStatus = "cancelled"
)

// Valid reports whether s is a known goal status.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalActive, GoalCompleted, GoalPaused, GoalCancelled:
		return true
	}
	return false
}

// Goal tracks savings towards a target amount. CurrentAmount is adjusted
// manually and is not derived from transactions.
type Goal struct {
	TargetDate    Date            `json:"target_date"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Description   *string         `json:"description"`
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Priority      GoalPriority    `json:"priority"`
	Status        GoalStatus      `json:"status"`
	Currency      string          `json:"currency"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
}
