package currency

import (
	"github.com/shopspring/decimal"
)

// RateProvider supplies the value of one unit of a currency in US dollars.
type RateProvider interface {
	USDRate(code string) (decimal.Decimal, bool)
}

// StaticRates is a fixed rate table keyed by currency code. Each value is the
// price of one unit of that currency in US dollars.
type StaticRates map[string]decimal.Decimal

// USDRate implements RateProvider.
func (r StaticRates) USDRate(code string) (decimal.Decimal, bool) {
	rate, ok := r[code]
	return rate, ok
}

// DefaultRates returns the built-in approximate rate table.
func DefaultRates() StaticRates {
	return StaticRates{
		USD: decimal.NewFromInt(1),
		EUR: decimal.RequireFromString("1.08"),
		ARS: decimal.RequireFromString("0.001"),
	}
}

// WithOverrides returns a copy of r with the given rates replacing its own.
func (r StaticRates) WithOverrides(overrides map[string]decimal.Decimal) StaticRates {
	out := make(StaticRates, len(r)+len(overrides))
	for code, rate := range r {
		out[code] = rate
	}
	for code, rate := range overrides {
		out[code] = rate
	}
	return out
}

// Amount is a value tagged with its currency.
type Amount struct {
	Currency string          `json:"currency"`
	Value    decimal.Decimal `json:"amount"`
}

// Converter converts amounts between currencies through USD.
type Converter struct {
	rates RateProvider
}

// NewConverter creates a converter backed by rates.
func NewConverter(rates RateProvider) *Converter {
	if rates == nil {
		rates = DefaultRates()
	}
	return &Converter{rates: rates}
}

// Convert converts amount from one currency to another. Identical currencies
// and unknown rates return the amount unchanged.
func (c *Converter) Convert(amount decimal.Decimal, from, to string) decimal.Decimal {
	if from == to {
		return amount
	}
	fromRate, ok := c.rates.USDRate(from)
	if !ok {
		return amount
	}
	toRate, ok := c.rates.USDRate(to)
	if !ok || toRate.IsZero() {
		return amount
	}
	return amount.Mul(fromRate).Div(toRate)
}

// Normalize converts every amount into base, rounded to cents.
func (c *Converter) Normalize(amounts []Amount, base string) []Amount {
	out := make([]Amount, len(amounts))
	for i, a := range amounts {
		out[i] = Amount{
			Currency: base,
			Value:    c.Convert(a.Value, a.Currency, base).Round(2),
		}
	}
	return out
}

// Total sums heterogeneous amounts in base currency.
func (c *Converter) Total(amounts []Amount, base string) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(c.Convert(a.Value, a.Currency, base))
	}
	return total.Round(2)
}

var defaultConverter = NewConverter(DefaultRates())

// Convert converts amount using the built-in rate table.
func Convert(amount decimal.Decimal, from, to string) decimal.Decimal {
	return defaultConverter.Convert(amount, from, to)
}
