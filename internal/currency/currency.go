// Package currency formats and converts monetary amounts between the
// supported currencies.
package currency

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Supported currency codes.
const (
	ARS = "ARS"
	USD = "USD"
	EUR = "EUR"
)

// Info describes how a currency is displayed.
type Info struct {
	Locale   language.Tag `json:"-"`
	Code     string       `json:"code"`
	Name     string       `json:"name"`
	Symbol   string       `json:"symbol"`
	Decimals int          `json:"decimals"`
}

var infos = map[string]Info{
	ARS: {Code: ARS, Name: "Peso argentino", Symbol: "$", Decimals: 0, Locale: language.MustParse("es-AR")},
	USD: {Code: USD, Name: "US Dollar", Symbol: "US$", Decimals: 2, Locale: language.AmericanEnglish},
	EUR: {Code: EUR, Name: "Euro", Symbol: "€", Decimals: 2, Locale: language.MustParse("es-ES")},
}

// IsValid reports whether code is a supported currency.
func IsValid(code string) bool {
	_, ok := infos[code]
	return ok
}

// Lookup returns display information for code.
func Lookup(code string) (Info, bool) {
	info, ok := infos[strings.ToUpper(code)]
	return info, ok
}

// Codes lists the supported currencies in alphabetical order.
func Codes() []string {
	codes := make([]string, 0, len(infos))
	for code := range infos {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Format renders amount using the currency's symbol, locale separators and
// precision. Unknown codes fall back to a dollar-prefixed two decimal format.
func Format(amount decimal.Decimal, code string) string {
	info, ok := Lookup(code)
	if !ok {
		return "$" + amount.StringFixed(2)
	}

	rounded := amount.Round(int32(info.Decimals))
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}

	f, _ := rounded.Float64()
	p := message.NewPrinter(info.Locale)
	return sign + info.Symbol + p.Sprint(number.Decimal(f, number.Scale(info.Decimals)))
}
