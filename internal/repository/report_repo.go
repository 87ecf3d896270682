package repository

import (
	"context"

	"novapos/internal/dto"
	"novapos/internal/model"

	"gorm.io/gorm"
)

// ReportRepository runs the read-only aggregation queries behind /v1/reports.
type ReportRepository interface {
	DailySales(ctx context.Context, filter dto.ReportFilter) ([]dto.DailySales, error)
	TopProducts(ctx context.Context, filter dto.ReportFilter, limit int) ([]dto.TopProduct, error)
	StockValuation(ctx context.Context) (*dto.StockValuation, error)
}

type reportRepo struct{ db *gorm.DB }

func NewReportRepository(db *gorm.DB) ReportRepository { return &reportRepo{db: db} }

func (r *reportRepo) DailySales(ctx context.Context, filter dto.ReportFilter) ([]dto.DailySales, error) {
	var rows []dto.DailySales
	q := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("DATE(created_at)::text AS date, COUNT(*) AS count, COALESCE(SUM(total), 0) AS total").
		Where("status = ?", model.SaleCompleted)
	if filter.From != "" {
		q = q.Where("DATE(created_at) >= ?", filter.From)
	}
	if filter.To != "" {
		q = q.Where("DATE(created_at) <= ?", filter.To)
	}
	err := q.Group("DATE(created_at)").Order("date ASC").Scan(&rows).Error
	return rows, err
}

func (r *reportRepo) TopProducts(ctx context.Context, filter dto.ReportFilter, limit int) ([]dto.TopProduct, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []dto.TopProduct
	q := r.db.WithContext(ctx).Model(&model.SaleItem{}).
		Select(`sale_items.product_id::text AS product_id,
			products.name AS name,
			SUM(sale_items.quantity) AS quantity,
			COALESCE(SUM(sale_items.total), 0) AS revenue`).
		Joins("JOIN products ON products.id = sale_items.product_id").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.status = ?", model.SaleCompleted)
	if filter.From != "" {
		q = q.Where("DATE(sales.created_at) >= ?", filter.From)
	}
	if filter.To != "" {
		q = q.Where("DATE(sales.created_at) <= ?", filter.To)
	}
	err := q.Group("sale_items.product_id, products.name").
		Order("quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *reportRepo) StockValuation(ctx context.Context) (*dto.StockValuation, error) {
	var row dto.StockValuation
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select(`COUNT(*) AS products,
			COALESCE(SUM(stock), 0) AS units,
			COALESCE(SUM(stock * cost), 0) AS total_cost`).
		Where("active = true").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
