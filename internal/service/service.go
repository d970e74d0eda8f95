package service

import (
	"time"

	"github.com/Veraticus/finanzas/internal/currency"
	"github.com/Veraticus/finanzas/internal/model"
)

// Services bundles every ledger service over one store.
type Services struct {
	Accounts   *AccountService
	Categories *CategoryService
	Ledger     *Ledger
	Transfers  *TransferService
	Budgets    *BudgetService
	Goals      *GoalService
	Payments   *PaymentService
	Dashboard  *DashboardService
	Settings   *SettingsService
	Importer   *Importer
}

// Option customizes the services built by New.
type Option func(*core)

// WithClock overrides the wall clock used for "today".
func WithClock(now func() time.Time) Option {
	return func(c *core) {
		if now != nil {
			c.now = now
		}
	}
}

// WithConverter sets the converter used for cross-currency transfers and
// consolidated totals.
func WithConverter(conv *currency.Converter) Option {
	return func(c *core) {
		if conv != nil {
			c.converter = conv
		}
	}
}

// WithBaseCurrency sets the currency that dashboard totals consolidate into.
func WithBaseCurrency(code string) Option {
	return func(c *core) {
		if currency.IsValid(code) {
			c.base = code
		}
	}
}

// core is the state shared by all services.
type core struct {
	store     Storage
	locks     *AccountLocks
	converter *currency.Converter
	now       func() time.Time
	base      string
}

func (c *core) today() model.Date {
	return model.DateOf(c.now())
}

// New wires every service to store.
func New(store Storage, opts ...Option) *Services {
	c := &core{
		store:     store,
		locks:     NewAccountLocks(),
		converter: currency.NewConverter(nil),
		now:       time.Now,
		base:      currency.USD,
	}
	for _, opt := range opts {
		opt(c)
	}

	ledger := &Ledger{core: c}
	return &Services{
		Accounts:   &AccountService{core: c},
		Categories: &CategoryService{core: c},
		Ledger:     ledger,
		Transfers:  &TransferService{core: c},
		Budgets:    &BudgetService{core: c},
		Goals:      &GoalService{core: c},
		Payments:   &PaymentService{core: c, ledger: ledger},
		Dashboard:  &DashboardService{core: c},
		Settings:   &SettingsService{core: c},
		Importer:   &Importer{core: c, ledger: ledger},
	}
}
