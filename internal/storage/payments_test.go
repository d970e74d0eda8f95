package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPayment(t *testing.T, store *SQLiteStorage, name string, due model.Date, status model.PaymentStatus) *model.Payment {
	t.Helper()
	payment := &model.Payment{
		ID:       uuid.NewString(),
		Name:     name,
		Amount:   decimal.NewFromInt(50),
		Currency: "USD",
		DueDate:  due,
		Status:   status,
	}
	require.NoError(t, store.CreatePayment(context.Background(), payment))
	return payment
}

func TestPayments_RoundTrip(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	account := seedAccount(t, store, "Checking", "USD", "0")

	freq := model.FrequencyMonthly
	payment := seedPayment(t, store, "Rent", model.NewDate(2024, 5, 1), model.PaymentPending)
	payment.IsRecurring = true
	payment.Frequency = &freq
	payment.AccountID = &account.ID
	require.NoError(t, store.UpdatePayment(ctx, payment))

	got, err := store.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRecurring)
	require.NotNil(t, got.Frequency)
	assert.Equal(t, model.FrequencyMonthly, *got.Frequency)
	require.NotNil(t, got.AccountID)
	assert.Equal(t, account.ID, *got.AccountID)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.PaidDate)

	// Deleting the linked account clears the link.
	require.NoError(t, store.DeleteAccount(ctx, account.ID))
	got, err = store.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AccountID)

	recurring := true
	list, err := store.ListPayments(ctx, service.PaymentFilter{Recurring: &recurring})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.DeletePayment(ctx, payment.ID))
}

func TestPayments_MarkOverdue(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	today := model.NewDate(2024, 6, 15)

	late := seedPayment(t, store, "Late bill", model.NewDate(2024, 6, 10), model.PaymentPending)
	dueToday := seedPayment(t, store, "Due today", today, model.PaymentPending)
	paid := seedPayment(t, store, "Already paid", model.NewDate(2024, 6, 1), model.PaymentPaid)

	n, err := store.MarkOverduePayments(ctx, today)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = store.MarkOverduePayments(ctx, today)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	for id, want := range map[string]model.PaymentStatus{
		late.ID:     model.PaymentOverdue,
		dueToday.ID: model.PaymentPending,
		paid.ID:     model.PaymentPaid,
	} {
		got, err := store.GetPayment(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, got.Name)
	}
}
