package model

import (
	"time"

	"github.com/google/uuid"
)

// WooCommerceConnection stores the credentials and sync bookkeeping for one
// external store. A single active row is expected; it holds no domain data.
type WooCommerceConnection struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreURL       string    `gorm:"not null"`
	ConsumerKey    string    `gorm:"not null"`
	ConsumerSecret string    `gorm:"not null"`
	SyncProducts   bool      `gorm:"not null;default:false"`
	SyncOrders     bool      `gorm:"not null;default:false"`
	LastSync       *time.Time
	Active         bool `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName overrides GORM's default pluralization.
func (WooCommerceConnection) TableName() string { return "woocommerce_connections" }
