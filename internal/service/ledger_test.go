package service_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/Veraticus/finanzas/internal/common"
	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
	"github.com/Veraticus/finanzas/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string {
	return &s
}

func TestLedgerBalanceLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	ledger := db.Services.Ledger

	account := db.MustAccount("Checking", model.AccountChecking, "USD", "1000")
	food := db.MustCategory("Food", model.CategoryTypeExpense)

	txn, err := ledger.Create(ctx, service.TransactionInput{
		AccountID:   account.ID,
		CategoryID:  food.ID,
		Type:        "expense",
		Amount:      dec("50"),
		Description: strPtr("Groceries"),
		Date:        "2024-06-10",
	})
	require.NoError(t, err)
	assert.Equal(t, "-50", txn.Amount.String())
	assert.Equal(t, "Checking", txn.AccountName)
	assert.Equal(t, "Food", txn.CategoryName)
	assert.Equal(t, "USD", txn.Currency)
	assert.Equal(t, "950", db.Balance(account.ID).String())

	_, err = ledger.Update(ctx, txn.ID, service.TransactionInput{
		AccountID:   account.ID,
		CategoryID:  food.ID,
		Type:        "expense",
		Amount:      dec("30"),
		Description: strPtr("Groceries"),
		Date:        "2024-06-10",
	})
	require.NoError(t, err)
	assert.Equal(t, "970", db.Balance(account.ID).String())

	require.NoError(t, ledger.Delete(ctx, txn.ID))
	assert.Equal(t, "1000", db.Balance(account.ID).String())

	_, err = ledger.Get(ctx, txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestLedgerSignFollowsType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	account := db.MustAccount("Checking", model.AccountChecking, "USD", "0")
	salary := db.MustCategory("Salary", model.CategoryTypeIncome)

	txn := db.MustTransaction(account.ID, salary.ID, model.TransactionIncome, "-1200.50", "2024-06-01")

	assert.Equal(t, "1200.5", txn.Amount.String())
	assert.Equal(t, model.TransactionIncome, txn.Type)
	assert.Equal(t, "1200.5", db.Balance(account.ID).String())
}

func TestLedgerDefaultsDateToToday(t *testing.T) {
	db := testutil.SetupTestDB(t)
	account := db.MustAccount("Wallet", model.AccountCash, "USD", "100")
	food := db.MustCategory("Food", model.CategoryTypeExpense)

	txn := db.MustTransaction(account.ID, food.ID, model.TransactionExpense, "5", "")

	assert.Equal(t, db.Clock.Today(), txn.Date)
}

func TestLedgerUpdateIdenticalIsNoOp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	account := db.MustAccount("Checking", model.AccountChecking, "USD", "1000")
	food := db.MustCategory("Food", model.CategoryTypeExpense)

	in := service.TransactionInput{
		AccountID:  account.ID,
		CategoryID: food.ID,
		Type:       "expense",
		Amount:     dec("75.25"),
		Date:       "2024-06-02",
		Tags:       []string{"weekly", "weekly", " "},
	}
	txn, err := db.Services.Ledger.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"weekly"}, txn.Tags)

	for range 3 {
		_, err := db.Services.Ledger.Update(ctx, txn.ID, in)
		require.NoError(t, err)
	}
	assert.Equal(t, "924.75", db.Balance(account.ID).String())
}

func TestLedgerUpdateMovesBetweenAccounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	checking := db.MustAccount("Checking", model.AccountChecking, "USD", "500")
	savings := db.MustAccount("Savings", model.AccountSavings, "USD", "500")
	food := db.MustCategory("Food", model.CategoryTypeExpense)

	txn := db.MustTransaction(checking.ID, food.ID, model.TransactionExpense, "100", "2024-06-01")
	require.Equal(t, "400", db.Balance(checking.ID).String())

	moved, err := db.Services.Ledger.Update(ctx, txn.ID, service.TransactionInput{
		AccountID:  savings.ID,
		CategoryID: food.ID,
		Type:       "expense",
		Amount:     dec("40"),
		Date:       "2024-06-01",
	})
	require.NoError(t, err)

	assert.Equal(t, savings.ID, moved.AccountID)
	assert.Equal(t, "500", db.Balance(checking.ID).String())
	assert.Equal(t, "460", db.Balance(savings.ID).String())
}

func TestLedgerUpdateChangesType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	account := db.MustAccount("Checking", model.AccountChecking, "USD", "100")
	food := db.MustCategory("Food", model.CategoryTypeExpense)
	salary := db.MustCategory("Salary", model.CategoryTypeIncome)

	txn := db.MustTransaction(account.ID, food.ID, model.TransactionExpense, "20", "2024-06-01")
	_, err := db.Services.Ledger.Update(ctx, txn.ID, service.TransactionInput{
		AccountID:  account.ID,
		CategoryID: salary.ID,
		Type:       "income",
		Amount:     dec("20"),
		Date:       "2024-06-01",
	})
	require.NoError(t, err)

	assert.Equal(t, "120", db.Balance(account.ID).String())
}

func TestLedgerValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	account := db.MustAccount("Checking", model.AccountChecking, "USD", "100")
	food := db.MustCategory("Food", model.CategoryTypeExpense)
	salary := db.MustCategory("Salary", model.CategoryTypeIncome)

	valid := service.TransactionInput{
		AccountID:  account.ID,
		CategoryID: food.ID,
		Type:       "expense",
		Amount:     dec("10"),
		Date:       "2024-06-01",
	}

	tests := []struct {
		name   string
		mutate func(in *service.TransactionInput)
		field  string
	}{
		{"zero amount", func(in *service.TransactionInput) { in.Amount = decimal.Zero }, "amount"},
		{"rounds to zero", func(in *service.TransactionInput) { in.Amount = dec("0.001") }, "amount"},
		{"unknown type", func(in *service.TransactionInput) { in.Type = "refund" }, "type"},
		{"category type mismatch", func(in *service.TransactionInput) { in.CategoryID = salary.ID }, "category_id"},
		{"missing account", func(in *service.TransactionInput) { in.AccountID = "nope" }, "account_id"},
		{"missing category", func(in *service.TransactionInput) { in.CategoryID = "nope" }, "category_id"},
		{"short description", func(in *service.TransactionInput) { in.Description = strPtr("ab") }, "description"},
		{"bad date", func(in *service.TransactionInput) { in.Date = "01/06/2024" }, "date"},
		{"recurring without frequency", func(in *service.TransactionInput) { in.IsRecurring = true }, "recurring_frequency"},
		{"unknown frequency", func(in *service.TransactionInput) {
			in.IsRecurring = true
			in.RecurringFrequency = strPtr("daily")
		}, "recurring_frequency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			_, err := db.Services.Ledger.Create(ctx, in)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrValidation)

			var verr *common.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	assert.Equal(t, "100", db.Balance(account.ID).String())
}

func TestLedgerNormalizesBlankText(t *testing.T) {
	db := testutil.SetupTestDB(t)
	account := db.MustAccount("Checking", model.AccountChecking, "USD", "100")
	food := db.MustCategory("Food", model.CategoryTypeExpense)

	txn, err := db.Services.Ledger.Create(context.Background(), service.TransactionInput{
		AccountID:   account.ID,
		CategoryID:  food.ID,
		Type:        "expense",
		Amount:      dec("1"),
		Description: strPtr("   "),
		Location:    strPtr(""),
	})
	require.NoError(t, err)

	assert.Nil(t, txn.Description)
	assert.Nil(t, txn.Location)
}

func TestLedgerRejectsInactiveAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	account := db.MustAccount("Old", model.AccountChecking, "USD", "100")
	food := db.MustCategory("Food", model.CategoryTypeExpense)

	inactive := false
	_, err := db.Services.Accounts.Update(ctx, account.ID, service.AccountInput{
		Name: "Old", Type: "checking", Currency: "USD", IsActive: &inactive,
	})
	require.NoError(t, err)

	_, err = db.Services.Ledger.Create(ctx, service.TransactionInput{
		AccountID: account.ID, CategoryID: food.ID, Type: "expense", Amount: dec("1"),
	})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestLedgerRejectsOversizedAmounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	account := db.MustAccount("Checking", model.AccountChecking, "USD", "0")
	salary := db.MustCategory("Salary", model.CategoryTypeIncome)

	income := func(amount string) error {
		_, err := db.Services.Ledger.Create(ctx, service.TransactionInput{
			AccountID: account.ID, CategoryID: salary.ID, Type: "income", Amount: dec(amount),
		})
		return err
	}

	assert.ErrorIs(t, income("1e17"), common.ErrValidation)
	assert.ErrorIs(t, income("1000000000000.01"), common.ErrValidation)
	require.NoError(t, income("1000000000000"))

	_, err := db.Services.Accounts.Create(ctx, service.AccountInput{
		Name: "Huge", Type: "savings", Currency: "USD", InitialBalance: dec("1e13"),
	})
	assert.ErrorIs(t, err, common.ErrValidation)

	// Bring the balance up to the stored ceiling, then try to cross it.
	require.NoError(t, db.Storage.AdjustAccountBalance(ctx, account.ID, dec("999000000000000")))
	assert.Equal(t, "1000000000000000", db.Balance(account.ID).String())

	assert.ErrorIs(t, income("0.01"), common.ErrValidation)
	assert.Equal(t, "1000000000000000", db.Balance(account.ID).String())

	got, err := db.Services.Accounts.Get(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	_, err = db.Services.Ledger.Create(ctx, service.TransactionInput{
		AccountID: account.ID, CategoryID: db.MustCategory("Food", model.CategoryTypeExpense).ID,
		Type: "expense", Amount: dec("500"),
	})
	require.NoError(t, err)
	assert.Equal(t, "999999999999500", db.Balance(account.ID).String())
}

func TestLedgerListFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	usd := db.MustAccount("Checking", model.AccountChecking, "USD", "1000")
	ars := db.MustAccount("Pesos", model.AccountCash, "ARS", "100000")
	food := db.MustCategory("Food", model.CategoryTypeExpense)
	salary := db.MustCategory("Salary", model.CategoryTypeIncome)

	db.MustTransaction(usd.ID, food.ID, model.TransactionExpense, "10", "2024-05-30")
	db.MustTransaction(usd.ID, salary.ID, model.TransactionIncome, "500", "2024-06-01")
	db.MustTransaction(ars.ID, food.ID, model.TransactionExpense, "2500", "2024-06-05")

	all, err := db.Services.Ledger.List(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2024-06-05", all[0].Date.String())

	from := model.NewDate(2024, 6, 1)
	june, err := db.Services.Ledger.List(ctx, service.TransactionFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, june, 2)

	pesos, err := db.Services.Ledger.List(ctx, service.TransactionFilter{Currency: "ars"})
	require.NoError(t, err)
	require.Len(t, pesos, 1)
	assert.Equal(t, ars.ID, pesos[0].AccountID)

	income, err := db.Services.Ledger.List(ctx, service.TransactionFilter{Type: model.TransactionIncome})
	require.NoError(t, err)
	require.Len(t, income, 1)
	assert.Equal(t, "500", income[0].Amount.String())

	to := model.NewDate(2024, 5, 1)
	_, err = db.Services.Ledger.List(ctx, service.TransactionFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, common.ErrValidation)
}

// TestLedgerConservation applies a random sequence of mutations and checks
// every balance still equals its initial balance plus its transactions.
func TestLedgerConservation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	accounts := []*service.AccountView{
		db.MustAccount("Checking", model.AccountChecking, "USD", "2500"),
		db.MustAccount("Savings", model.AccountSavings, "USD", "10000"),
		db.MustAccount("Card", model.AccountCredit, "USD", "0"),
	}
	categories := map[string]string{
		"expense": db.MustCategory("Food", model.CategoryTypeExpense).ID,
		"income":  db.MustCategory("Salary", model.CategoryTypeIncome).ID,
	}

	randomInput := func() service.TransactionInput {
		txnType := "expense"
		if rng.Intn(3) == 0 {
			txnType = "income"
		}
		return service.TransactionInput{
			AccountID:  accounts[rng.Intn(len(accounts))].ID,
			CategoryID: categories[txnType],
			Type:       txnType,
			Amount:     decimal.New(int64(rng.Intn(50000)+1), -2),
			Date:       fmt.Sprintf("2024-06-%02d", rng.Intn(28)+1),
		}
	}

	var ids []string
	for range 200 {
		switch op := rng.Intn(10); {
		case op < 6 || len(ids) == 0:
			txn, err := db.Services.Ledger.Create(ctx, randomInput())
			require.NoError(t, err)
			ids = append(ids, txn.ID)
		case op < 8:
			_, err := db.Services.Ledger.Update(ctx, ids[rng.Intn(len(ids))], randomInput())
			require.NoError(t, err)
		default:
			i := rng.Intn(len(ids))
			require.NoError(t, db.Services.Ledger.Delete(ctx, ids[i]))
			ids = append(ids[:i], ids[i+1:]...)
		}
	}

	for _, account := range accounts {
		audit, err := db.Services.Ledger.VerifyBalance(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, audit.Consistent, "account %s drifted by %s", account.Name, audit.Drift)

		txns, err := db.Services.Ledger.List(ctx, service.TransactionFilter{AccountID: account.ID})
		require.NoError(t, err)
		expected := account.InitialBalance
		for _, txn := range txns {
			expected = expected.Add(txn.Amount)
		}
		assert.True(t, expected.Equal(db.Balance(account.ID)), "account %s: want %s, got %s",
			account.Name, expected, db.Balance(account.ID))
	}
}

func TestLedgerConcurrentWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	account := db.MustAccount("Checking", model.AccountChecking, "USD", "1000")
	food := db.MustCategory("Food", model.CategoryTypeExpense)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.Services.Ledger.Create(ctx, service.TransactionInput{
				AccountID: account.ID, CategoryID: food.ID, Type: "expense", Amount: dec("1.50"),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, "970", db.Balance(account.ID).String())
}
