package cli

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMessages(t *testing.T) {
	tests := []struct {
		name   string
		format func(string) string
		icon   string
	}{
		{"success", FormatSuccess, SuccessIcon},
		{"error", FormatError, ErrorIcon},
		{"warning", FormatWarning, WarningIcon},
		{"info", FormatInfo, InfoIcon},
		{"title", FormatTitle, LedgerIcon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.format("balance updated")
			assert.Contains(t, out, tt.icon)
			assert.Contains(t, out, "balance updated")
		})
	}
}

func TestFormatAmountKeepsText(t *testing.T) {
	for _, v := range []string{"-12.5", "0", "40"} {
		d := decimal.RequireFromString(v)
		assert.Contains(t, FormatAmount(d, "US$"+v), "US$"+v)
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(
		[]string{"NAME", "BALANCE"},
		[][]string{{"Checking", "US$1,000.00"}, {"Wallet", "US$20.00"}},
	)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Checking")
	assert.Contains(t, out, "US$20.00")
}

func TestRenderBox(t *testing.T) {
	out := RenderBox("Totals", "net US$5.00")
	assert.Contains(t, out, "Totals")
	assert.Contains(t, out, "net US$5.00")
}
