package dto

// MovementFilter is bound from the query string of GET /v1/inventory/movements.
type MovementFilter struct {
	ProductID     string `form:"product_id"`
	MovementType  string `form:"movement_type"`  // in | out
	ReferenceType string `form:"reference_type"` // sale | purchase
	Page          int    `form:"page,default=1"   validate:"min=1"`
	Limit         int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type MovementResponse struct {
	ID            string  `json:"id"`
	ProductID     string  `json:"product_id"`
	Product       string  `json:"product"`
	MovementType  string  `json:"movement_type"`
	Quantity      int     `json:"quantity"`
	ReferenceType *string `json:"reference_type"`
	ReferenceID   *string `json:"reference_id"`
	Notes         *string `json:"notes"`
	CreatedAt     string  `json:"created_at"`
}

type MovementListResponse struct {
	Data  []MovementResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// StockAlertResponse flags products at or below their minimum stock level.
type StockAlertResponse struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	MinStock  int    `json:"min_stock"`
}
