package repository

import (
	"context"
	"time"

	"novapos/internal/model"

	"gorm.io/gorm"
)

// WooCommerceRepository manages the single-active-connection row.
type WooCommerceRepository interface {
	FindActive(ctx context.Context) (*model.WooCommerceConnection, error)
	// Save deactivates any previous connection and stores the new one.
	Save(ctx context.Context, conn *model.WooCommerceConnection) error
	TouchLastSync(ctx context.Context, conn *model.WooCommerceConnection, at time.Time) error
}

type wooCommerceRepo struct{ db *gorm.DB }

func NewWooCommerceRepository(db *gorm.DB) WooCommerceRepository {
	return &wooCommerceRepo{db: db}
}

func (r *wooCommerceRepo) FindActive(ctx context.Context) (*model.WooCommerceConnection, error) {
	var conn model.WooCommerceConnection
	err := r.db.WithContext(ctx).Where("active = true").Order("created_at DESC").First(&conn).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *wooCommerceRepo) Save(ctx context.Context, conn *model.WooCommerceConnection) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.WooCommerceConnection{}).
			Where("active = true").Update("active", false).Error; err != nil {
			return err
		}
		conn.Active = true
		return tx.Create(conn).Error
	})
}

func (r *wooCommerceRepo) TouchLastSync(ctx context.Context, conn *model.WooCommerceConnection, at time.Time) error {
	conn.LastSync = &at
	return r.db.WithContext(ctx).Model(conn).Update("last_sync", at).Error
}
