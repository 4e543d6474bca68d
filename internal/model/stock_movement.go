package model

import (
	"time"

	"github.com/google/uuid"
)

// Movement kinds.
const (
	MovementSale   = "sale"
	MovementRefund = "refund"
	MovementManual = "manual_adjust"
)

// StockMovement records every change applied to an item's on-hand quantity.
// Created automatically on finalize, refund, and manual adjustment.
type StockMovement struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind   string    `gorm:"not null"` // "sale" | "refund" | "manual_adjust"
	// Qty is the applied delta: negative = out, positive = in. For sale
	// decrements floored at zero this is the delta actually applied, which
	// may be smaller in magnitude than the line quantity.
	Qty    int `gorm:"not null"`
	Before int `gorm:"not null"`
	After  int `gorm:"not null"`
	Reason string
	RefID  *uuid.UUID `gorm:"type:uuid"` // transaction or refund id, when applicable

	CreatedAt time.Time

	Item *Item `gorm:"foreignKey:ItemID"`
}

// TableName overrides GORM's default pluralization.
func (StockMovement) TableName() string { return "stock_movements" }
