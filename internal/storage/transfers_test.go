package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/finanzas/internal/common"
	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransfers_RecordAndList(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	from := seedAccount(t, store, "Source", "USD", "500")
	to := seedAccount(t, store, "Target", "USD", "0")
	other := seedAccount(t, store, "Other", "USD", "0")

	transfer := &model.Transfer{
		ID:             uuid.NewString(),
		FromAccountID:  from.ID,
		ToAccountID:    to.ID,
		Type:           model.TransferExternal,
		Status:         model.TransferCompleted,
		Currency:       "USD",
		Amount:         decimal.NewFromInt(100),
		Fee:            decimal.NewFromInt(1),
		CreditedAmount: decimal.NewFromInt(100),
		Date:           model.NewDate(2024, 4, 1),
	}
	require.NoError(t, store.CreateTransfer(ctx, transfer))

	got, err := store.GetTransfer(ctx, transfer.ID)
	require.NoError(t, err)
	assert.True(t, got.Fee.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, model.TransferExternal, got.Type)

	list, err := store.ListTransfers(ctx, service.TransferFilter{AccountID: to.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = store.ListTransfers(ctx, service.TransferFilter{AccountID: other.ID})
	require.NoError(t, err)
	assert.Empty(t, list)

	totals, err := store.GetLedgerTotals(ctx, from.ID)
	require.NoError(t, err)
	assert.True(t, totals.TransfersOut.Equal(decimal.NewFromInt(101)))

	n, err := store.CountAccountTransfers(ctx, to.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Accounts referenced by transfers cannot be removed.
	assert.ErrorIs(t, store.DeleteAccount(ctx, from.ID), common.ErrConflict)

	self := *transfer
	self.ID = uuid.NewString()
	self.ToAccountID = from.ID
	assert.ErrorIs(t, store.CreateTransfer(ctx, &self), common.ErrValidation)
}
