package repository

import (
	"context"

	"lanepos/internal/dto"
	"lanepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemRepository defines the data access contract for catalog items and their
// barcodes. Services depend on this interface, not on the concrete GORM
// implementation, enabling clean unit testing via stubs.
type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error)
	// FindByBarcode resolves a barcode to its single active item.
	FindByBarcode(ctx context.Context, code string) (*model.Item, error)
	List(ctx context.Context, filter dto.ItemFilter) ([]model.Item, int64, error)
	Update(ctx context.Context, item *model.Item) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) error

	AddBarcode(ctx context.Context, b *model.Barcode) error
	RemoveBarcode(ctx context.Context, itemID uuid.UUID, code string) error
	ListBarcodes(ctx context.Context, itemID uuid.UUID) ([]model.Barcode, error)

	// Used inside transactions — callers must pass the tx instance.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Item, error)
	SetQuantityTx(tx *gorm.DB, id uuid.UUID, qty int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type itemRepo struct{ db *gorm.DB }

func NewItemRepository(db *gorm.DB) ItemRepository { return &itemRepo{db: db} }

func (r *itemRepo) Create(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *itemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).Preload("Barcodes").First(&item, id).Error
	return &item, err
}

func (r *itemRepo) FindByBarcode(ctx context.Context, code string) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).
		Joins("JOIN barcodes ON barcodes.item_id = items.id").
		Where("barcodes.code = ? AND items.active = true", code).
		First(&item).Error
	return &item, err
}

func (r *itemRepo) List(ctx context.Context, filter dto.ItemFilter) ([]model.Item, int64, error) {
	var items []model.Item
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Item{})

	// Active filter: "false" = inactive, "all" = everything, default = active
	switch filter.Active {
	case "false":
		q = q.Where("active = false")
	case "all":
		// no filter
	default:
		q = q.Where("active = true")
	}

	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Barcodes").Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&items).Error
	return items, total, err
}

func (r *itemRepo) Update(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *itemRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Item{}).Where("id = ?", id).Update("active", false).Error
}

func (r *itemRepo) Reactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Item{}).Where("id = ?", id).Update("active", true).Error
}

func (r *itemRepo) AddBarcode(ctx context.Context, b *model.Barcode) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *itemRepo) RemoveBarcode(ctx context.Context, itemID uuid.UUID, code string) error {
	return r.db.WithContext(ctx).
		Where("item_id = ? AND code = ?", itemID, code).
		Delete(&model.Barcode{}).Error
}

func (r *itemRepo) ListBarcodes(ctx context.Context, itemID uuid.UUID) ([]model.Barcode, error) {
	var barcodes []model.Barcode
	err := r.db.WithContext(ctx).Where("item_id = ?", itemID).Find(&barcodes).Error
	return barcodes, err
}

func (r *itemRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	err := tx.First(&item, id).Error
	return &item, err
}

func (r *itemRepo) SetQuantityTx(tx *gorm.DB, id uuid.UUID, qty int) error {
	return tx.Model(&model.Item{}).Where("id = ?", id).Update("quantity", qty).Error
}

func (r *itemRepo) DB() *gorm.DB { return r.db }
