package service

import (
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/finanzas/internal/common"
	"github.com/Veraticus/finanzas/internal/currency"
	"github.com/Veraticus/finanzas/internal/model"
	"github.com/shopspring/decimal"
)

const (
	minNameLength        = 2
	maxAccountNameLength = 100
	maxCategoryName      = 50
	minDescriptionLength = 3
	maxDescriptionLength = 255
	maxLocationLength    = 200
)

func validateName(field, name string, maxLen int) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < minNameLength {
		return "", common.Invalid(field, "must be at least %d characters", minNameLength)
	}
	if n > maxLen {
		return "", common.Invalid(field, "must be at most %d characters", maxLen)
	}
	return name, nil
}

func validateCurrency(field, code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !currency.IsValid(code) {
		return "", common.Invalid(field, "unsupported currency %q (expected one of %s)",
			code, strings.Join(currency.Codes(), ", "))
	}
	return code, nil
}

// optionalText trims s and returns nil when it is empty. Non-empty values
// must fit within [minLen, maxLen] runes.
func optionalText(field string, s *string, minLen, maxLen int) (*string, error) {
	if s == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil, nil
	}
	n := utf8.RuneCountInString(trimmed)
	if n < minLen {
		return nil, common.Invalid(field, "must be at least %d characters", minLen)
	}
	if n > maxLen {
		return nil, common.Invalid(field, "must be at most %d characters", maxLen)
	}
	return &trimmed, nil
}

func parseDate(field, raw string, fallback model.Date) (model.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return model.Date{}, common.Invalid(field, "%v", err)
	}
	return d, nil
}

func parseOptionalDate(field string, raw *string) (*model.Date, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	d, err := model.ParseDate(*raw)
	if err != nil {
		return nil, common.Invalid(field, "%v", err)
	}
	return &d, nil
}

func parseFrequency(field string, raw *string) (*model.Frequency, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	f := model.Frequency(strings.ToLower(strings.TrimSpace(*raw)))
	if !f.Valid() {
		return nil, common.Invalid(field, "unknown frequency %q", *raw)
	}
	return &f, nil
}

func requirePositive(field string, amount decimal.Decimal) (decimal.Decimal, error) {
	amount = model.RoundMoney(amount)
	if !amount.IsPositive() {
		return decimal.Zero, common.Invalid(field, "must be greater than zero")
	}
	return requireWithinLimit(field, amount)
}

func requireWithinLimit(field string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !model.WithinLimit(amount) {
		return decimal.Zero, common.Invalid(field, "must not exceed %s in absolute value", model.MaxAmount.String())
	}
	return amount, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func stringOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return strings.TrimSpace(s)
}
