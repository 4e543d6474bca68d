package repository

import (
	"context"

	"lanepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentRepository is append-only: payments are created and read, never
// updated or deleted.
type PaymentRepository interface {
	CreateTx(tx *gorm.DB, p *model.Payment) error
	ListByTransaction(ctx context.Context, txID uuid.UUID) ([]model.Payment, error)
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) PaymentRepository { return &paymentRepo{db: db} }

func (r *paymentRepo) CreateTx(tx *gorm.DB, p *model.Payment) error {
	return tx.Create(p).Error
}

func (r *paymentRepo) ListByTransaction(ctx context.Context, txID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.WithContext(ctx).Where("transaction_id = ?", txID).Order("created_at ASC").Find(&payments).Error
	return payments, err
}
