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

func TestGoals_CRUDAndOrdering(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	mk := func(name string, priority model.GoalPriority, target model.Date) *model.Goal {
		g := &model.Goal{
			ID:           uuid.NewString(),
			Name:         name,
			TargetAmount: decimal.NewFromInt(1000),
			TargetDate:   target,
			Priority:     priority,
			Status:       model.GoalActive,
			Currency:     "USD",
		}
		require.NoError(t, store.CreateGoal(ctx, g))
		return g
	}

	low := mk("Vacation", model.PriorityLow, model.NewDate(2025, 1, 1))
	high := mk("Emergency fund", model.PriorityHigh, model.NewDate(2026, 1, 1))
	mk("Laptop", model.PriorityMedium, model.NewDate(2025, 6, 1))

	goals, err := store.ListGoals(ctx, service.GoalFilter{})
	require.NoError(t, err)
	require.Len(t, goals, 3)
	assert.Equal(t, high.ID, goals[0].ID)
	assert.Equal(t, low.ID, goals[2].ID)

	low.CurrentAmount = decimal.RequireFromString("250.5")
	low.Status = model.GoalPaused
	require.NoError(t, store.UpdateGoal(ctx, low))

	paused, err := store.ListGoals(ctx, service.GoalFilter{Status: model.GoalPaused})
	require.NoError(t, err)
	require.Len(t, paused, 1)
	assert.True(t, paused[0].CurrentAmount.Equal(decimal.RequireFromString("250.50")))

	low.CurrentAmount = decimal.NewFromInt(-1)
	assert.ErrorIs(t, store.UpdateGoal(ctx, low), common.ErrValidation)

	require.NoError(t, store.DeleteGoal(ctx, high.ID))
	_, err = store.GetGoal(ctx, high.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
