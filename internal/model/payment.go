package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const PaymentCash = "cash"

// Payment is an append-only ledger entry attached to a transaction.
// Amount is signed: positive for sales, negative for refunds. Rows are
// never mutated after creation.
type Payment struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method        string          `gorm:"type:varchar(20);not null;default:'cash'"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	CreatedAt time.Time
}
