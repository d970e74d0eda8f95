// Package model defines the ledger entities shared by storage, services and the API.
package model

import (
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// MoneyScale is the number of fractional digits kept for every stored amount.
const MoneyScale = 2

// MaxAmount is the largest absolute amount a single write may carry.
var MaxAmount = decimal.New(1, 12)

// MaxBalanceMinor bounds the absolute value of a stored account balance, in
// minor units.
const MaxBalanceMinor int64 = 100_000_000_000_000_000

// WithinLimit reports whether |amount| <= MaxAmount.
func WithinLimit(amount decimal.Decimal) bool {
	return amount.Abs().LessThanOrEqual(MaxAmount)
}

// FromMinor converts an amount in minor units (cents) to a decimal amount.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -MoneyScale)
}

// ToMinor converts an amount to minor units, rounding half away from zero.
// Callers keep amounts within MaxAmount; larger values wrap.
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Round(MoneyScale).Shift(MoneyScale).IntPart()
}

// RoundMoney rounds an amount to the stored precision.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyScale)
}
