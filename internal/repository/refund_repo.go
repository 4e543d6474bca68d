package repository

import (
	"context"

	"lanepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RefundRepository interface {
	// FindByOriginalTx returns the refund record for an original transaction,
	// or gorm.ErrRecordNotFound when no refund has happened yet.
	FindByOriginalTx(ctx context.Context, originalTxID uuid.UUID) (*model.Refund, error)
	FindByOriginalTxTx(tx *gorm.DB, originalTxID uuid.UUID) (*model.Refund, error)
	CreateTx(tx *gorm.DB, r *model.Refund) error
	// ListReversalTxIDs returns the ids of every generated reversal
	// transaction; the ledger's List excludes these.
	ListReversalTxIDs(ctx context.Context) ([]uuid.UUID, error)
}

type refundRepo struct{ db *gorm.DB }

func NewRefundRepository(db *gorm.DB) RefundRepository { return &refundRepo{db: db} }

func (r *refundRepo) FindByOriginalTx(ctx context.Context, originalTxID uuid.UUID) (*model.Refund, error) {
	var ref model.Refund
	err := r.db.WithContext(ctx).Where("original_tx = ?", originalTxID).First(&ref).Error
	return &ref, err
}

func (r *refundRepo) FindByOriginalTxTx(tx *gorm.DB, originalTxID uuid.UUID) (*model.Refund, error) {
	var ref model.Refund
	err := tx.Where("original_tx = ?", originalTxID).First(&ref).Error
	return &ref, err
}

func (r *refundRepo) CreateTx(tx *gorm.DB, ref *model.Refund) error {
	return tx.Create(ref).Error
}

func (r *refundRepo) ListReversalTxIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Refund{}).Pluck("refund_tx", &ids).Error
	return ids, err
}
