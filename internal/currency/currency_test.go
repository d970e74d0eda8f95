package currency

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidAndLookup(t *testing.T) {
	assert.True(t, IsValid("ARS"))
	assert.True(t, IsValid("EUR"))
	assert.False(t, IsValid("usd"))
	assert.False(t, IsValid("BRL"))

	info, ok := Lookup("ars")
	require.True(t, ok)
	assert.Equal(t, 0, info.Decimals)
	assert.Equal(t, []string{"ARS", "EUR", "USD"}, Codes())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "US$1,234.50", Format(decimal.RequireFromString("1234.5"), USD))
	assert.Equal(t, "-US$12.00", Format(decimal.NewFromInt(-12), USD))
	assert.Equal(t, "$12.30", Format(decimal.RequireFromString("12.3"), "BRL"))

	ars := Format(decimal.RequireFromString("950.75"), ARS)
	assert.Equal(t, "$951", ars)

	eur := Format(decimal.RequireFromString("10.5"), EUR)
	assert.Equal(t, "€10,50", eur)
}

func TestConvert(t *testing.T) {
	c := NewConverter(DefaultRates())

	assert.True(t, c.Convert(decimal.NewFromInt(10), EUR, EUR).Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "10.8", c.Convert(decimal.NewFromInt(10), EUR, USD).String())
	assert.Equal(t, "5", c.Convert(decimal.NewFromInt(5000), ARS, USD).String())
	assert.True(t, c.Convert(decimal.NewFromInt(3), "BRL", USD).Equal(decimal.NewFromInt(3)))
}

func TestConvertRoundTrip(t *testing.T) {
	c := NewConverter(DefaultRates())
	rng := rand.New(rand.NewSource(7))
	tolerance := decimal.RequireFromString("0.01")

	for range 200 {
		x := decimal.New(rng.Int63n(10_000_000), -2)
		for _, from := range Codes() {
			for _, to := range Codes() {
				back := c.Convert(c.Convert(x, from, to), to, from)
				assert.True(t, back.Sub(x).Abs().LessThanOrEqual(tolerance),
					"%s %s->%s->%s gave %s", x, from, to, from, back)
			}
		}
	}
}

func TestTotalAndNormalize(t *testing.T) {
	c := NewConverter(DefaultRates().WithOverrides(map[string]decimal.Decimal{
		ARS: decimal.RequireFromString("0.002"),
	}))
	amounts := []Amount{
		{Currency: USD, Value: decimal.NewFromInt(100)},
		{Currency: EUR, Value: decimal.NewFromInt(50)},
		{Currency: ARS, Value: decimal.NewFromInt(1000)},
	}

	assert.Equal(t, "156", c.Total(amounts, USD).String())

	normalized := c.Normalize(amounts, USD)
	require.Len(t, normalized, 3)
	assert.Equal(t, "54", normalized[1].Value.String())
	assert.Equal(t, "2", normalized[2].Value.String())
	assert.Equal(t, USD, normalized[2].Currency)
}
