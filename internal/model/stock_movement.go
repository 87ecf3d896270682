package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock movement directions and causes.
const (
	MovementIn  = "in"
	MovementOut = "out"

	ReferenceSale     = "sale"
	ReferencePurchase = "purchase"
)

// StockMovement is an append-only audit row recording a single inventory
// change, tagged with the transaction that caused it. Quantity is always
// positive; direction lives in MovementType. One row per line item per
// transaction. The sum of in minus out movements for a product should
// reconcile with its current stock (best-effort, not enforced).
type StockMovement struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	MovementType  string     `gorm:"type:varchar(10);not null"` // in | out
	Quantity      int        `gorm:"not null"`                  // always positive
	ReferenceType *string    `gorm:"type:varchar(20)"`          // sale | purchase
	ReferenceID   *uuid.UUID `gorm:"type:uuid;index"`
	Notes         *string
	CreatedAt     time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// TableName overrides GORM's default pluralization.
func (StockMovement) TableName() string { return "stock_movements" }
