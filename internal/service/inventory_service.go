package service

import (
	"context"

	"lanepos/internal/apperr"
	"lanepos/internal/model"
	"lanepos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryService applies quantity deltas to items. Decrements floor at
// zero (a sale never drives stock negative — deliberate best-effort policy,
// not a hard stock check); increments are unbounded add-backs. Every applied
// delta writes a StockMovement audit row.
type InventoryService interface {
	// DecrementTx reduces an item's on-hand quantity by qty, floored at 0.
	DecrementTx(tx *gorm.DB, itemID uuid.UUID, qty int, reason string, refID *uuid.UUID) error
	// IncrementTx adds qty back to an item's on-hand quantity.
	IncrementTx(tx *gorm.DB, itemID uuid.UUID, qty int, reason string, refID *uuid.UUID) error
	// Adjust applies a signed manual delta outside any sale, floored at 0.
	Adjust(ctx context.Context, itemID uuid.UUID, delta int, reason string) (*model.Item, error)
}

type inventoryService struct {
	items     repository.ItemRepository
	movements repository.StockMovementRepository
}

func NewInventoryService(items repository.ItemRepository, movements repository.StockMovementRepository) InventoryService {
	return &inventoryService{items: items, movements: movements}
}

func (s *inventoryService) DecrementTx(tx *gorm.DB, itemID uuid.UUID, qty int, reason string, refID *uuid.UUID) error {
	return s.applyTx(tx, itemID, -qty, model.MovementSale, reason, refID)
}

func (s *inventoryService) IncrementTx(tx *gorm.DB, itemID uuid.UUID, qty int, reason string, refID *uuid.UUID) error {
	return s.applyTx(tx, itemID, qty, model.MovementRefund, reason, refID)
}

// applyTx reads the item inside the transaction, computes the floored result,
// and records the delta that was actually applied (which may be smaller in
// magnitude than requested when the floor kicks in).
func (s *inventoryService) applyTx(tx *gorm.DB, itemID uuid.UUID, delta int, kind, reason string, refID *uuid.UUID) error {
	item, err := s.items.FindByIDTx(tx, itemID)
	if err != nil {
		return err
	}
	before := item.Quantity
	after := before + delta
	if after < 0 {
		after = 0
	}
	if err := s.items.SetQuantityTx(tx, itemID, after); err != nil {
		return err
	}
	return s.movements.CreateTx(tx, &model.StockMovement{
		ID:     uuid.New(),
		ItemID: itemID,
		Kind:   kind,
		Qty:    after - before,
		Before: before,
		After:  after,
		Reason: reason,
		RefID:  refID,
	})
}

func (s *inventoryService) Adjust(ctx context.Context, itemID uuid.UUID, delta int, reason string) (*model.Item, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, apperr.New(apperr.NotFound, "item not found")
	}
	before := item.Quantity
	after := before + delta
	if after < 0 {
		after = 0
	}
	item.Quantity = after
	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}
	if err := s.movements.Create(ctx, &model.StockMovement{
		ID:     uuid.New(),
		ItemID: itemID,
		Kind:   model.MovementManual,
		Qty:    after - before,
		Before: before,
		After:  after,
		Reason: reason,
	}); err != nil {
		return nil, err
	}
	return item, nil
}
