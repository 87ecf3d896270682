package dto

import "github.com/shopspring/decimal"

type PurchaseItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity"   validate:"required,min=1"`
	Price     decimal.Decimal `json:"price"      validate:"required"` // unit cost agreed with the supplier
}

type CreatePurchaseRequest struct {
	SupplierID string                `json:"supplier_id" validate:"required,uuid"`
	Items      []PurchaseItemRequest `json:"items"       validate:"required,min=1,dive"`
	Notes      *string               `json:"notes"`
}

type PurchaseFilter struct {
	Date   string `form:"date"`
	Status string `form:"status"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type PurchaseItemResponse struct {
	ProductID string          `json:"product_id"`
	Product   string          `json:"product"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
}

type PurchaseResponse struct {
	ID             string                 `json:"id"`
	PurchaseNumber string                 `json:"purchase_number"`
	SupplierID     string                 `json:"supplier_id"`
	Supplier       *string                `json:"supplier"`
	Items          []PurchaseItemResponse `json:"items"`
	Subtotal       decimal.Decimal        `json:"subtotal"`
	Tax            decimal.Decimal        `json:"tax"`
	Total          decimal.Decimal        `json:"total"`
	Status         string                 `json:"status"`
	CreatedAt      string                 `json:"created_at"`
}

type PurchaseListResponse struct {
	Data  []PurchaseResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
