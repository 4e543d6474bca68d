package service_test

import (
	"context"
	"testing"

	"lanepos/internal/apperr"
	"lanepos/internal/model"
	"lanepos/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecrement_FloorsAtZero(t *testing.T) {
	itemRepo := newStubItemRepo()
	movements := &stubMovementRepo{}
	inv := service.NewInventoryService(itemRepo, movements)

	item := seedItem(itemRepo, "Soap", "1010101010101", 1.00, 0, 2)

	require.NoError(t, inv.DecrementTx(nil, item.ID, 5, "sale", nil))

	assert.Equal(t, 0, itemRepo.items[item.ID].Quantity)
	require.Len(t, movements.movements, 1)
	m := movements.movements[0]
	assert.Equal(t, -2, m.Qty) // applied delta, not the requested 5
	assert.Equal(t, 2, m.Before)
	assert.Equal(t, 0, m.After)
}

func TestIncrement_Unbounded(t *testing.T) {
	itemRepo := newStubItemRepo()
	movements := &stubMovementRepo{}
	inv := service.NewInventoryService(itemRepo, movements)

	item := seedItem(itemRepo, "Soap", "1010101010101", 1.00, 0, 0)

	require.NoError(t, inv.IncrementTx(nil, item.ID, 7, "refund", nil))
	assert.Equal(t, 7, itemRepo.items[item.ID].Quantity)
	assert.Equal(t, model.MovementRefund, movements.movements[0].Kind)
}

func TestAdjust_ManualDeltaWithAudit(t *testing.T) {
	itemRepo := newStubItemRepo()
	movements := &stubMovementRepo{}
	inv := service.NewInventoryService(itemRepo, movements)

	item := seedItem(itemRepo, "Batteries", "2020202020202", 5.99, 0.08, 10)

	got, err := inv.Adjust(context.Background(), item.ID, -4, "cycle count")
	require.NoError(t, err)
	assert.Equal(t, 6, got.Quantity)

	require.Len(t, movements.movements, 1)
	assert.Equal(t, model.MovementManual, movements.movements[0].Kind)
	assert.Equal(t, "cycle count", movements.movements[0].Reason)

	// Floors at zero too.
	got, err = inv.Adjust(context.Background(), item.ID, -100, "shrinkage")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
	assert.Equal(t, -6, movements.movements[1].Qty)
}

func TestAdjust_MissingItem(t *testing.T) {
	inv := service.NewInventoryService(newStubItemRepo(), &stubMovementRepo{})
	_, err := inv.Adjust(context.Background(), uuid.New(), 1, "found one")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
