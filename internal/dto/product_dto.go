package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	SKU         string          `json:"sku"         validate:"required,min=1,max=64"`
	Name        string          `json:"name"        validate:"required,min=2,max=120"`
	Description *string         `json:"description"`
	CategoryID  *string         `json:"category_id" validate:"omitempty,uuid"`
	Price       decimal.Decimal `json:"price"       validate:"required"`
	Cost        decimal.Decimal `json:"cost"        validate:"min=0"`
	Stock       int             `json:"stock"       validate:"min=0"`
	MinStock    int             `json:"min_stock"   validate:"min=0"`
	Barcode     *string         `json:"barcode"`
	ImageURL    *string         `json:"image_url"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"        validate:"omitempty,min=2,max=120"`
	Description *string          `json:"description"`
	CategoryID  *string          `json:"category_id" validate:"omitempty,uuid"`
	Price       *decimal.Decimal `json:"price"`
	Cost        *decimal.Decimal `json:"cost"`
	MinStock    *int             `json:"min_stock"   validate:"omitempty,min=0"`
	Barcode     *string          `json:"barcode"`
	ImageURL    *string          `json:"image_url"`
}

// AdjustStockRequest applies a manual delta outside the sale/purchase paths.
type AdjustStockRequest struct {
	Delta int    `json:"delta" validate:"required"`
	Notes string `json:"notes" validate:"required,min=3"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	SKU        string `form:"sku"`
	Name       string `form:"name"`
	CategoryID string `form:"category_id"`
	Active     string `form:"active"` // "false" = inactive, "all" = everything, default active
	LowStock   bool   `form:"low_stock"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	CategoryID  *string         `json:"category_id"`
	Category    *string         `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Stock       int             `json:"stock"`
	MinStock    int             `json:"min_stock"`
	Barcode     *string         `json:"barcode"`
	ImageURL    *string         `json:"image_url"`
	Active      bool            `json:"active"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// ProductLookupResponse is returned by the cached SKU lookup endpoint used by
// the POS screen.
type ProductLookupResponse struct {
	ID       string          `json:"id"`
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Category *string         `json:"category"`
}
