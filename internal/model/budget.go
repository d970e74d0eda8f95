package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultAlertThreshold is the budget usage ratio at which a warning is raised.
const DefaultAlertThreshold = 0.8

// Budget is a spending ceiling for one expense category over a date window.
type Budget struct {
	StartDate      Date            `json:"start_date"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	EndDate        *Date           `json:"end_date"`
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	CategoryID     string          `json:"category_id"`
	CategoryName   string          `json:"category_name,omitempty"`
	Period         Frequency       `json:"period"`
	Currency       string          `json:"currency"`
	Amount         decimal.Decimal `json:"amount"`
	AlertThreshold float64         `json:"alert_threshold"`
	IsActive       bool            `json:"is_active"`
}

// WindowEnd returns the end of the budget window, MaxDate when open ended.
func (b *Budget) WindowEnd() Date {
	if b.EndDate == nil {
		return MaxDate
	}
	return *b.EndDate
}
