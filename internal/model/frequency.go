package model

// Frequency is a recurrence interval used by budgets, payments and
// recurring transactions.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// Next returns the date one period after d.
func (f Frequency) Next(d Date) Date {
	switch f {
	case FrequencyWeekly:
		return d.AddDays(7)
	case FrequencyQuarterly:
		return d.AddMonths(3)
	case FrequencyYearly:
		return d.AddMonths(12)
	default:
		return d.AddMonths(1)
	}
}
