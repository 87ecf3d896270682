package dto

type CreateCustomerRequest struct {
	Name    string  `json:"name"    validate:"required,min=2,max=120"`
	Email   *string `json:"email"   validate:"omitempty,email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	TaxID   *string `json:"tax_id"`
}

type UpdateCustomerRequest struct {
	Name    *string `json:"name"  validate:"omitempty,min=2,max=120"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	TaxID   *string `json:"tax_id"`
}

type CustomerFilter struct {
	Name  string `form:"name"`
	Email string `form:"email"`
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type CustomerResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	TaxID         *string `json:"tax_id"`
	LoyaltyPoints int     `json:"loyalty_points"`
	Active        bool    `json:"active"`
}

type CustomerListResponse struct {
	Data  []CustomerResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
