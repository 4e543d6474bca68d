package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// ItemFilter is bound from query string of GET /v1/items.
type ItemFilter struct {
	// Active filter: "false" = inactive, "all" = everything, default = active
	Active string `form:"active"`
	Name   string `form:"name"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateItemRequest struct {
	Name     string          `json:"name"      validate:"required"`
	Price    decimal.Decimal `json:"price"     validate:"required,gt=0"`
	TaxRate  decimal.Decimal `json:"tax_rate"  validate:"min=0,max=1"`
	Quantity int             `json:"quantity"  validate:"min=0"`
	Cost     decimal.Decimal `json:"cost"      validate:"min=0"`
	PackSize int             `json:"pack_size" validate:"omitempty,min=1"`
	Barcodes []string        `json:"barcodes"  validate:"omitempty,dive,required"`
}

type UpdateItemRequest struct {
	Name     string          `json:"name"      validate:"required"`
	Price    decimal.Decimal `json:"price"     validate:"required,gt=0"`
	TaxRate  decimal.Decimal `json:"tax_rate"  validate:"min=0,max=1"`
	Cost     decimal.Decimal `json:"cost"      validate:"min=0"`
	PackSize int             `json:"pack_size" validate:"omitempty,min=1"`
}

type AddBarcodeRequest struct {
	Code string `json:"code" validate:"required"`
}

type AdjustStockRequest struct {
	// Delta is the signed adjustment; the resulting quantity is floored at 0.
	Delta  int    `json:"delta"  validate:"required"`
	Reason string `json:"reason" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	Quantity int             `json:"quantity"`
	Cost     decimal.Decimal `json:"cost"`
	PackSize int             `json:"pack_size"`
	Active   bool            `json:"active"`
	Barcodes []string        `json:"barcodes,omitempty"`
}

type ItemListResponse struct {
	Data  []ItemResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// PriceCheckResponse is served by the public barcode price endpoint.
type PriceCheckResponse struct {
	ItemID  string          `json:"item_id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	TaxRate decimal.Decimal `json:"tax_rate"`
}
