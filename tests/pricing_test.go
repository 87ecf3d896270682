package tests

import (
	"testing"

	"novapos/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDiscountPercent(t *testing.T) {
	assert.Equal(t, int64(0), service.DiscountPercent(0))
	assert.Equal(t, int64(0), service.DiscountPercent(99))
	assert.Equal(t, int64(1), service.DiscountPercent(100))
	assert.Equal(t, int64(2), service.DiscountPercent(250))
	assert.Equal(t, int64(10), service.DiscountPercent(1000))
	// Capped at 10% no matter how large the balance grows
	assert.Equal(t, int64(10), service.DiscountPercent(50000))
	assert.Equal(t, int64(0), service.DiscountPercent(-5))
}

func TestCalculateTotals_WorkedExample(t *testing.T) {
	// 2 × 25000 with 250 loyalty points:
	// subtotal 50000, 2% discount = 1000, tax 19% of 49000 = 9310, total 58310
	lines := []service.CartLine{
		{UnitPrice: decimal.NewFromInt(25000), Quantity: 2},
	}
	totals := service.CalculateTotals(lines, 250)

	assert.Equal(t, "50000", totals.Subtotal.String())
	assert.Equal(t, int64(2), totals.DiscountPercent)
	assert.Equal(t, "1000", totals.Discount.String())
	assert.Equal(t, "9310", totals.Tax.String())
	assert.Equal(t, "58310", totals.Total.String())
}

func TestCalculateTotals_NoCustomer(t *testing.T) {
	lines := []service.CartLine{
		{UnitPrice: decimal.NewFromFloat(15.50), Quantity: 3},
		{UnitPrice: decimal.NewFromFloat(4.25), Quantity: 1},
	}
	totals := service.CalculateTotals(lines, 0)

	// subtotal 50.75, no discount, tax 9.64 (rounded from 9.6425), total 60.39
	assert.Equal(t, "50.75", totals.Subtotal.String())
	assert.True(t, totals.Discount.IsZero())
	assert.Equal(t, "9.64", totals.Tax.String())
	assert.Equal(t, "60.39", totals.Total.String())
}

func TestCalculateTotals_DiscountCap(t *testing.T) {
	lines := []service.CartLine{{UnitPrice: decimal.NewFromInt(100), Quantity: 1}}
	totals := service.CalculateTotals(lines, 123456)

	assert.Equal(t, int64(10), totals.DiscountPercent)
	assert.Equal(t, "10", totals.Discount.String())
	assert.Equal(t, "17.1", totals.Tax.String()) // 19% of 90
	assert.Equal(t, "107.1", totals.Total.String())
}

func TestCalculatePurchaseTotals(t *testing.T) {
	// Purchases never carry a discount: tax is 19% of the full subtotal.
	lines := []service.CartLine{
		{UnitPrice: decimal.NewFromInt(200), Quantity: 5},
	}
	totals := service.CalculatePurchaseTotals(lines)

	assert.Equal(t, "1000", totals.Subtotal.String())
	assert.True(t, totals.Discount.IsZero())
	assert.Equal(t, "190", totals.Tax.String())
	assert.Equal(t, "1190", totals.Total.String())
}
