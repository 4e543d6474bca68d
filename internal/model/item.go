package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a sellable catalog entry. The ledger reads Price/TaxRate/Quantity
// and mutates Quantity on finalize and refund; everything else is catalog-owned.
type Item struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name string    `gorm:"index;not null"`
	// Price is the unit sale price, 2-decimal currency semantics.
	Price decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	// TaxRate is a fraction in [0,1], e.g. 0.0875 for 8.75%.
	TaxRate  decimal.Decimal `gorm:"type:decimal(6,4);not null;default:0"`
	Quantity int             `gorm:"not null;default:0"`
	Cost     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	PackSize int             `gorm:"not null;default:1"`
	Active   bool            `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Barcodes []Barcode `gorm:"foreignKey:ItemID"`
}

// Barcode maps a scanned code to exactly one item. An item may carry several
// distinct barcodes (pack variants, relabels).
type Barcode struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID uuid.UUID `gorm:"type:uuid;not null;index"`
	Code   string    `gorm:"uniqueIndex;not null"`

	CreatedAt time.Time
}
