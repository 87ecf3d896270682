package dto

import "github.com/shopspring/decimal"

// ReportFilter bounds a report to a date range (YYYY-MM-DD, inclusive).
type ReportFilter struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// DailySales is one row of the sales-by-day report.
type DailySales struct {
	Date  string          `json:"date"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// TopProduct is one row of the best-sellers report.
type TopProduct struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// StockValuation sums stock × cost over the active catalog.
type StockValuation struct {
	Products  int64           `json:"products"`
	Units     int64           `json:"units"`
	TotalCost decimal.Decimal `json:"total_cost"`
}
