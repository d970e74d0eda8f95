// Package testutil provides test databases and seed helpers shared by the
// package tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
	"github.com/Veraticus/finanzas/internal/storage"
	"github.com/shopspring/decimal"
)

// Clock is a settable clock for tests that depend on "today".
type Clock struct {
	now time.Time
	mu  sync.Mutex
}

// NewClock returns a clock fixed at noon UTC on the given day.
func NewClock(year int, month time.Month, day int) *Clock {
	return &Clock{now: time.Date(year, month, day, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Today returns the current fake date.
func (c *Clock) Today() model.Date {
	return model.DateOf(c.Now())
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TestDB is a migrated in-memory store with services wired to a fake clock.
type TestDB struct {
	Storage  *storage.SQLiteStorage
	Services *service.Services
	Clock    *Clock
	t        *testing.T
}

// SetupTestDB creates a new in-memory test database. It runs migrations,
// which seed the default categories, and closes the store on cleanup. The
// clock starts on 2024-06-15.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	acc := db.MustAccount("Checking", model.AccountChecking, "USD", "1000")
func SetupTestDB(t *testing.T, opts ...service.Option) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	clock := NewClock(2024, time.June, 15)
	opts = append([]service.Option{service.WithClock(clock.Now)}, opts...)

	return &TestDB{
		Storage:  store,
		Services: service.New(store, opts...),
		Clock:    clock,
		t:        t,
	}
}

// MustAccount opens an account through the account service.
func (db *TestDB) MustAccount(name string, accountType model.AccountType, code, initial string) *service.AccountView {
	db.t.Helper()
	account, err := db.Services.Accounts.Create(context.Background(), service.AccountInput{
		Name:           name,
		Type:           string(accountType),
		Currency:       code,
		InitialBalance: decimal.RequireFromString(initial),
	})
	if err != nil {
		db.t.Fatalf("failed to seed account %q: %v", name, err)
	}
	return account
}

// MustCategory returns a seeded category by name and type.
func (db *TestDB) MustCategory(name string, categoryType model.CategoryType) *model.Category {
	db.t.Helper()
	category, err := db.Storage.FindCategoryByName(context.Background(), name, categoryType)
	if err != nil {
		db.t.Fatalf("failed to look up category %q: %v", name, err)
	}
	if category == nil {
		db.t.Fatalf("category %q (%s) does not exist", name, categoryType)
	}
	return category
}

// MustTransaction books a transaction through the ledger.
func (db *TestDB) MustTransaction(accountID, categoryID string, txnType model.TransactionType, amount, date string) *service.TransactionView {
	db.t.Helper()
	txn, err := db.Services.Ledger.Create(context.Background(), service.TransactionInput{
		AccountID:  accountID,
		CategoryID: categoryID,
		Type:       string(txnType),
		Amount:     decimal.RequireFromString(amount),
		Date:       date,
	})
	if err != nil {
		db.t.Fatalf("failed to seed transaction: %v", err)
	}
	return txn
}

// Balance reads an account's stored balance.
func (db *TestDB) Balance(accountID string) decimal.Decimal {
	db.t.Helper()
	account, err := db.Storage.GetAccount(context.Background(), accountID)
	if err != nil {
		db.t.Fatalf("failed to read account %s: %v", accountID, err)
	}
	return account.Balance
}
