package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction statuses. A transaction is created open, becomes finalized
// exactly once, and may later become refunded when every line is refunded.
// Open transactions can instead be cancelled, which deletes them outright.
const (
	TxOpen      = "open"
	TxFinalized = "finalized"
	TxRefunded  = "refunded"
)

// RefundStatus values derived from the fraction of lines with RefundedBy set.
const (
	RefundNone    = "none"
	RefundPartial = "partial"
	RefundFull    = "full"
)

// Transaction is a sale (or, for refunds, a line-less monetary reversal).
// Subtotal/Tax/Total are always derived from the line set — recomputed from
// scratch on every line mutation, never incrementally patched.
type Transaction struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Status   string          `gorm:"type:varchar(20);not null;default:'open';index"`
	Subtotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Tax      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Lines    []TransactionLine `gorm:"foreignKey:TransactionID"`
	Payments []Payment         `gorm:"foreignKey:TransactionID"`
}

// TransactionLine is one item-quantity entry. UnitPrice and TaxRate are
// captured at add-time and never follow later catalog edits. The monetary
// fields are written once; only RefundedBy ever mutates, exactly once,
// from nil to the id of the Refund record that voided the line.
type TransactionLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity      int             `gorm:"not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TaxRate       decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	LineTotal     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	RefundedBy    *uuid.UUID      `gorm:"type:uuid"`

	CreatedAt time.Time

	Item *Item `gorm:"foreignKey:ItemID"`
}
