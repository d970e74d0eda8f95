package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType mirrors the sign of a transaction amount.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// CategoryType returns the category type a transaction of this type must use.
func (t TransactionType) CategoryType() CategoryType {
	if t == TransactionIncome {
		return CategoryTypeIncome
	}
	return CategoryTypeExpense
}

// SignedAmount applies the ledger sign convention: expenses are negative,
// income positive. The sign of amount itself is ignored.
func SignedAmount(t TransactionType, amount decimal.Decimal) decimal.Decimal {
	abs := RoundMoney(amount.Abs())
	if t == TransactionExpense {
		return abs.Neg()
	}
	return abs
}

// TypeOf derives the transaction type from a signed amount.
func TypeOf(signed decimal.Decimal) TransactionType {
	if signed.IsNegative() {
		return TransactionExpense
	}
	return TransactionIncome
}

// Transaction is a signed movement against one account and one category.
// Amount is stored signed and is the single source of truth for the
// transaction's contribution to its account balance.
type Transaction struct {
	Date               Date            `json:"date"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Description        *string         `json:"description"`
	Location           *string         `json:"location"`
	RecurringFrequency *Frequency      `json:"recurring_frequency,omitempty"`
	ExternalID         *string         `json:"external_id,omitempty"`
	ID                 string          `json:"id"`
	AccountID          string          `json:"account_id"`
	CategoryID         string          `json:"category_id"`
	Type               TransactionType `json:"type"`
	AccountName        string          `json:"account_name,omitempty"`
	CategoryName       string          `json:"category_name,omitempty"`
	Currency           string          `json:"currency,omitempty"`
	Tags               []string        `json:"tags"`
	Amount             decimal.Decimal `json:"amount"`
	IsRecurring        bool            `json:"is_recurring"`
}

// Contribution is the amount this transaction adds to its account balance.
func (t *Transaction) Contribution() decimal.Decimal {
	return t.Amount
}
