package model

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a CRM entry. LoyaltyPoints is a non-negative counter incremented
// one point per unit sold at checkout; points are never debited — they are only
// read to derive a capped percentage discount.
type Customer struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name          string    `gorm:"index;not null"`
	Email         *string   `gorm:"index"`
	Phone         *string
	Address       *string
	TaxID         *string `gorm:"column:tax_id"`
	LoyaltyPoints int     `gorm:"not null;default:0"`
	Active        bool    `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
