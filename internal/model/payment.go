package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of a scheduled payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentOverdue   PaymentStatus = "overdue"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentOverdue, PaymentCancelled:
		return true
	}
	return false
}

// Open reports whether the payment still awaits settlement.
func (s PaymentStatus) Open() bool {
	return s == PaymentPending || s == PaymentOverdue
}

// Payment is a scheduled, possibly recurring, bill.
type Payment struct {
	DueDate       Date            `json:"due_date"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	PaidDate      *Date           `json:"paid_date"`
	Description   *string         `json:"description"`
	Frequency     *Frequency      `json:"frequency"`
	AccountID     *string         `json:"account_id"`
	CategoryID    *string         `json:"category_id"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Status        PaymentStatus   `json:"status"`
	Currency      string          `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	IsRecurring   bool            `json:"is_recurring"`
}
