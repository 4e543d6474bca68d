package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AddLineRequest is bound from POST /v1/transactions/:id/lines.
type AddLineRequest struct {
	Barcode  string `json:"barcode"  validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

// FinalizeRequest commits a sale with a cash payment.
type FinalizeRequest struct {
	CashAmount decimal.Decimal `json:"cash_amount" validate:"required,gt=0"`
	// CustomerEmail: optional — when present, the receipt worker mails the PDF.
	CustomerEmail *string `json:"customer_email" validate:"omitempty,email"`
}

// TransactionFilter is bound from query string of GET /v1/transactions.
type TransactionFilter struct {
	Status string `form:"status,default=all"` // finalized | refunded | all
	Limit  int    `form:"limit,default=50"  validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LineResponse struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"item_id"`
	ItemName  string          `json:"item_name,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	LineTotal decimal.Decimal `json:"line_total"`
	// RefundedBy is the id of the refund that voided this line, or empty.
	RefundedBy string `json:"refunded_by,omitempty"`
}

type PaymentResponse struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

type TransactionResponse struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
	Tax       decimal.Decimal   `json:"tax"`
	Total     decimal.Decimal   `json:"total"`
	Lines     []LineResponse    `json:"lines"`
	Payments  []PaymentResponse `json:"payments,omitempty"`
	CreatedAt string            `json:"created_at"`
}

type FinalizeResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Change      decimal.Decimal     `json:"change"`
}

// TransactionListItem annotates a finalized/refunded sale with its derived
// refund status: none | partial | full.
type TransactionListItem struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	LineCount    int             `json:"line_count"`
	RefundStatus string          `json:"refund_status"`
	CreatedAt    string          `json:"created_at"`
}

type TransactionListResponse struct {
	Data  []TransactionListItem `json:"data"`
	Total int                   `json:"total"`
}
