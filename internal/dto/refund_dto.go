package dto

import "github.com/shopspring/decimal"

// RefundRequest selects lines of a finalized transaction to reverse.
type RefundRequest struct {
	LineIDs []string `json:"line_ids" validate:"required,min=1,dive,uuid"`
}

type RefundResponse struct {
	// RefundID is the shared refund identity for this original transaction;
	// stable across multiple partial-refund calls.
	RefundID string `json:"refund_id"`
	// RefundTransactionID is the generated line-less reversal transaction.
	RefundTransactionID string          `json:"refund_transaction_id"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	Tax                 decimal.Decimal `json:"tax"`
	Total               decimal.Decimal `json:"total"`
	// Partial is true when at least one line of the original remains
	// un-refunded after this call.
	Partial bool `json:"partial"`
}
