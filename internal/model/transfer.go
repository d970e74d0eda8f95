package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferType distinguishes fee-free internal moves from external ones.
type TransferType string

const (
	TransferInternal TransferType = "internal"
	TransferExternal TransferType = "external"
)

// Valid reports whether t is a known transfer type.
func (t TransferType) Valid() bool {
	return t == TransferInternal || t == TransferExternal
}

// ExternalFeeRate is charged on external transfers, on top of the amount.
var ExternalFeeRate = decimal.NewFromFloat(0.01)

// TransferStatus is the settlement state of a transfer.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferCompleted TransferStatus = "completed"
	TransferFailed    TransferStatus = "failed"
	TransferCancelled TransferStatus = "cancelled"
)

// Transfer is a first-class ledger movement between two accounts. The source
// is debited Amount+Fee and the destination credited CreditedAmount, which
// differs from Amount only when the account currencies differ.
type Transfer struct {
	Date           Date            `json:"date"`
	CreatedAt      time.Time       `json:"created_at"`
	Description    *string         `json:"description"`
	ID             string          `json:"id"`
	FromAccountID  string          `json:"from_account_id"`
	ToAccountID    string          `json:"to_account_id"`
	Type           TransferType    `json:"type"`
	Status         TransferStatus  `json:"status"`
	Currency       string          `json:"currency"`
	Amount         decimal.Decimal `json:"amount"`
	Fee            decimal.Decimal `json:"fee"`
	CreditedAmount decimal.Decimal `json:"credited_amount"`
}

// Debit is the total removed from the source account.
func (t *Transfer) Debit() decimal.Decimal {
	return t.Amount.Add(t.Fee)
}
