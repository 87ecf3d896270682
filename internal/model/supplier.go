package model

import (
	"time"

	"github.com/google/uuid"
)

// Supplier is the counterparty of a purchase.
type Supplier struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"index;not null"`
	Email     *string
	Phone     *string
	Address   *string
	TaxID     *string `gorm:"column:tax_id"`
	Active    bool    `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
