package model

import (
	"time"

	"github.com/google/uuid"
)

// Refund links an original sale to its generated reversal transaction.
// At most one row exists per original transaction: the first partial refund
// creates it, later partial refunds of the same sale reuse it, so all
// refunded lines of one sale share a single refund identity.
type Refund struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OriginalTxID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:original_tx"`
	RefundTxID   uuid.UUID `gorm:"type:uuid;not null;index;column:refund_tx"`

	CreatedAt time.Time
}
