package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	Date   string `form:"date"`   // YYYY-MM-DD; empty = today
	Status string `form:"status"` // completed | pending | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type CheckoutRequest struct {
	Items         []CartItemRequest `json:"items"          validate:"required,min=1,dive"`
	CustomerID    *string           `json:"customer_id"    validate:"omitempty,uuid"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash card transfer"`
	// CashReceived is validated against the grand total for cash payments.
	CashReceived *decimal.Decimal `json:"cash_received"`
	Notes        *string          `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ProductID string          `json:"product_id"`
	Product   string          `json:"product"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
}

type SaleResponse struct {
	ID              string             `json:"id"`
	SaleNumber      string             `json:"sale_number"`
	CustomerID      *string            `json:"customer_id"`
	Customer        *string            `json:"customer"`
	Items           []SaleItemResponse `json:"items"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	DiscountPercent int64              `json:"discount_percent"`
	Discount        decimal.Decimal    `json:"discount"`
	Tax             decimal.Decimal    `json:"tax"`
	Total           decimal.Decimal    `json:"total"`
	Change          decimal.Decimal    `json:"change"`
	PaymentMethod   string             `json:"payment_method"`
	Status          string             `json:"status"`
	PointsEarned    int                `json:"points_earned"`
	CreatedAt       string             `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
