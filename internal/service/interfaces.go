// Package service implements the ledger rules on top of the storage layer.
package service

import (
	"context"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/shopspring/decimal"
)

// AccountFilter narrows account listings.
type AccountFilter struct {
	Type            model.AccountType
	Currency        string
	IncludeInactive bool
}

// CategoryFilter narrows category listings.
type CategoryFilter struct {
	Type            model.CategoryType
	IncludeInactive bool
}

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	From       *model.Date
	To         *model.Date
	AccountID  string
	CategoryID string
	Currency   string
	Type       model.TransactionType
	Limit      int
	Offset     int
}

// BudgetFilter narrows budget listings.
type BudgetFilter struct {
	Currency   string
	CategoryID string
	ActiveOnly bool
}

// GoalFilter narrows goal listings.
type GoalFilter struct {
	Currency string
	Status   model.GoalStatus
	Priority model.GoalPriority
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	Recurring *bool
	Status    model.PaymentStatus
	Currency  string
}

// TransferFilter narrows transfer listings.
type TransferFilter struct {
	AccountID string
	Limit     int
}

// CurrencyBalance is the sum of active account balances in one currency.
type CurrencyBalance struct {
	Currency     string          `json:"currency"`
	Balance      decimal.Decimal `json:"balance"`
	AccountCount int             `json:"account_count"`
}

// CurrencyFlow is the income and expense total for one currency.
type CurrencyFlow struct {
	Currency string          `json:"currency"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// CategoryTotal is the absolute amount moved through one category.
type CategoryTotal struct {
	CategoryID   string             `json:"category_id"`
	CategoryName string             `json:"category_name"`
	Color        string             `json:"color"`
	Type         model.CategoryType `json:"type"`
	Currency     string             `json:"currency"`
	Total        decimal.Decimal    `json:"total"`
	Count        int                `json:"count"`
}

// DailyTotal is the absolute expense amount for one day and currency.
type DailyTotal struct {
	Date     model.Date      `json:"date"`
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
}

// LedgerTotals breaks down what an account's balance should be.
type LedgerTotals struct {
	Initial      decimal.Decimal
	Transactions decimal.Decimal
	TransfersIn  decimal.Decimal
	TransfersOut decimal.Decimal
}

// Queries is the set of reads and writes available both on the store and
// inside a unit of work.
type Queries interface {
	// Account operations
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	ListAccounts(ctx context.Context, filter AccountFilter) ([]model.Account, error)
	FindActiveAccountByName(ctx context.Context, name string) (*model.Account, error)
	UpdateAccount(ctx context.Context, account *model.Account) error
	AdjustAccountBalance(ctx context.Context, id string, delta decimal.Decimal) error
	DeleteAccount(ctx context.Context, id string) error
	CountAccountTransactions(ctx context.Context, id string) (int, error)
	CountAccountTransfers(ctx context.Context, id string) (int, error)
	GetLedgerTotals(ctx context.Context, id string) (*LedgerTotals, error)

	// Category operations
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	FindCategoryByName(ctx context.Context, name string, categoryType model.CategoryType) (*model.Category, error)
	ListCategories(ctx context.Context, filter CategoryFilter) ([]model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id string) error
	CountCategoryTransactions(ctx context.Context, id string) (int, error)
	CountCategoryBudgets(ctx context.Context, id string) (int, error)
	CountCategoryPayments(ctx context.Context, id string) (int, error)

	// Transaction operations
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	// Budget operations
	CreateBudget(ctx context.Context, budget *model.Budget) error
	GetBudget(ctx context.Context, id string) (*model.Budget, error)
	ListBudgets(ctx context.Context, filter BudgetFilter) ([]model.Budget, error)
	UpdateBudget(ctx context.Context, budget *model.Budget) error
	DeleteBudget(ctx context.Context, id string) error
	FindOverlappingBudget(ctx context.Context, budget *model.Budget) (*model.Budget, error)
	SumExpenses(ctx context.Context, categoryID, currency string, from, to model.Date) (decimal.Decimal, error)

	// Goal operations
	CreateGoal(ctx context.Context, goal *model.Goal) error
	GetGoal(ctx context.Context, id string) (*model.Goal, error)
	ListGoals(ctx context.Context, filter GoalFilter) ([]model.Goal, error)
	UpdateGoal(ctx context.Context, goal *model.Goal) error
	DeleteGoal(ctx context.Context, id string) error

	// Payment operations
	CreatePayment(ctx context.Context, payment *model.Payment) error
	GetPayment(ctx context.Context, id string) (*model.Payment, error)
	ListPayments(ctx context.Context, filter PaymentFilter) ([]model.Payment, error)
	UpdatePayment(ctx context.Context, payment *model.Payment) error
	DeletePayment(ctx context.Context, id string) error
	MarkOverduePayments(ctx context.Context, today model.Date) (int64, error)

	// Transfer operations
	CreateTransfer(ctx context.Context, transfer *model.Transfer) error
	GetTransfer(ctx context.Context, id string) (*model.Transfer, error)
	ListTransfers(ctx context.Context, filter TransferFilter) ([]model.Transfer, error)

	// Settings
	GetSettings(ctx context.Context, userID string) (*model.Settings, error)
	SaveSettings(ctx context.Context, settings *model.Settings) error

	// Reporting
	BalancesByCurrency(ctx context.Context) ([]CurrencyBalance, error)
	FlowsByCurrency(ctx context.Context, from, to model.Date) ([]CurrencyFlow, error)
	TotalsByCategory(ctx context.Context, from, to model.Date) ([]CategoryTotal, error)
	DailyExpenses(ctx context.Context, from, to model.Date) ([]DailyTotal, error)
}

// Tx is a unit of work. Everything done through it commits or rolls back
// together.
type Tx interface {
	Queries
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	Queries

	// WithTx runs fn in a single database transaction, committing when fn
	// returns nil and rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Migrate(ctx context.Context) error
	Close() error
}
