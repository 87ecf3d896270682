package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is the intake mirror of Sale: same header/items shape, supplier
// instead of customer, stock direction inverted, no discount.
type Purchase struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PurchaseNumber string          `gorm:"uniqueIndex;not null"`
	SupplierID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Tax            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status         string          `gorm:"type:varchar(20);not null;default:'completed'"`
	Notes          *string
	CreatedAt      time.Time

	Supplier *Supplier      `gorm:"foreignKey:SupplierID"`
	Items    []PurchaseItem `gorm:"foreignKey:PurchaseID"`
}

// PurchaseItem is one intake line at the agreed unit cost.
type PurchaseItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PurchaseID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity   int             `gorm:"not null"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
