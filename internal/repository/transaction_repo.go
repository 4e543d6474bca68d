package repository

import (
	"context"
	"time"

	"lanepos/internal/dto"
	"lanepos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionRepository owns transaction and line records. Totals columns are
// only ever written via UpdateTotalsTx with freshly recomputed values.
type TransactionRepository interface {
	Create(ctx context.Context, t *model.Transaction) error
	CreateTx(tx *gorm.DB, t *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error)

	CreateLineTx(tx *gorm.DB, line *model.TransactionLine) error
	// MarkLineRefundedTx sets refunded_by on a line, one time only; rows whose
	// refunded_by is already set are left untouched (guarded in the WHERE).
	MarkLineRefundedTx(tx *gorm.DB, lineID, refundID uuid.UUID) error

	UpdateTotalsTx(tx *gorm.DB, id uuid.UUID, subtotal, tax, total decimal.Decimal) error
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error

	// DeleteTx permanently removes a transaction and all its lines (cancel).
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	// List returns finalized/refunded transactions newest-first with lines
	// preloaded, excluding ids in excludeIDs (reversal transactions) and
	// finalized transactions that have no lines.
	List(ctx context.Context, filter dto.TransactionFilter, excludeIDs []uuid.UUID) ([]model.Transaction, error)

	// ListStaleOpen returns ids of open transactions created before cutoff.
	ListStaleOpen(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)

	DB() *gorm.DB
}

type transactionRepo struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) TransactionRepository { return &transactionRepo{db: db} }

func (r *transactionRepo) DB() *gorm.DB { return r.db }

func (r *transactionRepo) Create(ctx context.Context, t *model.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *transactionRepo) CreateTx(tx *gorm.DB, t *model.Transaction) error {
	return tx.Create(t).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Lines.Item").
		Preload("Payments").
		First(&t, id).Error
	return &t, err
}

func (r *transactionRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	err := tx.Preload("Lines").First(&t, id).Error
	return &t, err
}

func (r *transactionRepo) CreateLineTx(tx *gorm.DB, line *model.TransactionLine) error {
	return tx.Create(line).Error
}

func (r *transactionRepo) MarkLineRefundedTx(tx *gorm.DB, lineID, refundID uuid.UUID) error {
	return tx.Model(&model.TransactionLine{}).
		Where("id = ? AND refunded_by IS NULL", lineID).
		Update("refunded_by", refundID).Error
}

func (r *transactionRepo) UpdateTotalsTx(tx *gorm.DB, id uuid.UUID, subtotal, tax, total decimal.Decimal) error {
	return tx.Model(&model.Transaction{}).Where("id = ?", id).Updates(map[string]interface{}{
		"subtotal": subtotal,
		"tax":      tax,
		"total":    total,
	}).Error
}

func (r *transactionRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return tx.Model(&model.Transaction{}).Where("id = ?", id).Update("status", status).Error
}

func (r *transactionRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("transaction_id = ?", id).Delete(&model.TransactionLine{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Transaction{}, id).Error
}

func (r *transactionRepo) List(ctx context.Context, filter dto.TransactionFilter, excludeIDs []uuid.UUID) ([]model.Transaction, error) {
	var txs []model.Transaction

	q := r.db.WithContext(ctx).Model(&model.Transaction{})

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	} else {
		q = q.Where("status IN ?", []string{model.TxFinalized, model.TxRefunded})
	}
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	// Zero-line finalized transactions are orphaned artifacts — hide them.
	q = q.Where("EXISTS (SELECT 1 FROM transaction_lines WHERE transaction_lines.transaction_id = transactions.id)")

	err := q.Preload("Lines").
		Order("created_at DESC").
		Limit(filter.Limit).
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepo) ListStaleOpen(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("status = ? AND created_at < ?", model.TxOpen, cutoff).
		Pluck("id", &ids).Error
	return ids, err
}
