package service_test

import (
	"context"
	"testing"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
	"github.com/Veraticus/finanzas/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	usd := db.MustAccount("Checking", model.AccountChecking, "USD", "1000")
	eur := db.MustAccount("Euros", model.AccountSavings, "EUR", "100")
	food := db.MustCategory("Food", model.CategoryTypeExpense)
	salary := db.MustCategory("Salary", model.CategoryTypeIncome)

	db.MustTransaction(usd.ID, salary.ID, model.TransactionIncome, "500", "2024-06-01")
	db.MustTransaction(usd.ID, food.ID, model.TransactionExpense, "200", "2024-06-03")
	db.MustTransaction(usd.ID, food.ID, model.TransactionExpense, "50", "2024-05-28")
	db.MustTransaction(eur.ID, food.ID, model.TransactionExpense, "10", "2024-06-04")

	_, err := db.Services.Payments.Create(ctx, service.PaymentInput{
		Name: "Rent", Amount: dec("900"), Currency: "USD", DueDate: "2024-06-30",
	})
	require.NoError(t, err)

	dash, err := db.Services.Dashboard.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, "2024-06-01", dash.Period.From.String())
	assert.Equal(t, "2024-06-30", dash.Period.To.String())

	require.Len(t, dash.Currencies, 2)
	byCode := map[string]service.CurrencySummary{}
	for _, c := range dash.Currencies {
		byCode[c.Currency] = c
	}
	assert.Equal(t, "1250", byCode["USD"].Balance.String())
	assert.Equal(t, "500", byCode["USD"].Income.String())
	assert.Equal(t, "200", byCode["USD"].Expenses.String())
	assert.Equal(t, "300", byCode["USD"].Net.String())
	assert.Equal(t, "90", byCode["EUR"].Balance.String())
	assert.Equal(t, "-10", byCode["EUR"].Net.String())
	assert.Equal(t, 1, byCode["EUR"].AccountCount)

	assert.Equal(t, "USD", dash.Consolidated.Currency)
	assert.Equal(t, "1347.2", dash.Consolidated.Balance.String())
	assert.Equal(t, "500", dash.Consolidated.Income.String())
	assert.Equal(t, "210.8", dash.Consolidated.Expenses.String())
	assert.Equal(t, "289.2", dash.Consolidated.Net.String())

	require.Len(t, dash.Income, 1)
	assert.Equal(t, "Salary", dash.Income[0].CategoryName)
	require.Len(t, dash.Expenses, 2, "one line per category and currency")
	assert.Equal(t, "200", dash.Expenses[0].Total.String())

	assert.Len(t, dash.Daily, 2)
	assert.Equal(t, 1, dash.OpenPayments)
}

func TestDashboardEmpty(t *testing.T) {
	db := testutil.SetupTestDB(t, service.WithBaseCurrency("EUR"))

	dash, err := db.Services.Dashboard.Get(context.Background())
	require.NoError(t, err)

	assert.Empty(t, dash.Currencies)
	assert.Empty(t, dash.Income)
	assert.Empty(t, dash.Expenses)
	assert.Equal(t, "EUR", dash.Consolidated.Currency)
	assert.True(t, dash.Consolidated.Balance.IsZero())
}

func TestSettings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	settings := db.Services.Settings

	got, err := settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "USD", got.DefaultCurrency)
	assert.Equal(t, service.DefaultDateFormat, got.DateFormat)

	got, err = settings.Update(ctx, service.SettingsInput{DefaultCurrency: "ars"})
	require.NoError(t, err)
	assert.Equal(t, "ARS", got.DefaultCurrency)
	assert.Equal(t, service.DefaultDateFormat, got.DateFormat)

	got, err = settings.Update(ctx, service.SettingsInput{DateFormat: "yyyy-mm-dd"})
	require.NoError(t, err)
	assert.Equal(t, "ARS", got.DefaultCurrency)
	assert.Equal(t, "YYYY-MM-DD", got.DateFormat)

	_, err = settings.Update(ctx, service.SettingsInput{DateFormat: "YY/MM"})
	assert.Error(t, err)
	_, err = settings.Update(ctx, service.SettingsInput{DefaultCurrency: "JPY"})
	assert.Error(t, err)

	stored, err := settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ARS", stored.DefaultCurrency)
	assert.Equal(t, "YYYY-MM-DD", stored.DateFormat)
}
