package service

import "github.com/shopspring/decimal"

// Fixed 19% VAT applied after the loyalty discount. Cap of 10% on the
// loyalty discount regardless of accumulated points.
var (
	vatRate            = decimal.NewFromFloat(0.19)
	maxDiscountPercent = int64(10)
	oneHundred         = decimal.NewFromInt(100)
)

// CartLine is a resolved cart entry: the unit price is the catalog price at
// the moment of checkout, already snapshotted by the caller.
type CartLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is the full price breakdown for one transaction.
type Totals struct {
	Subtotal        decimal.Decimal
	DiscountPercent int64
	Discount        decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
}

// DiscountPercent converts a loyalty-point balance into a whole discount
// percentage: one percent per 100 points, capped at 10. Points are never
// debited; the balance only grows.
func DiscountPercent(loyaltyPoints int) int64 {
	pct := int64(loyaltyPoints / 100)
	if pct > maxDiscountPercent {
		pct = maxDiscountPercent
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// CalculateTotals computes the sale breakdown:
//
//	subtotal = Σ unit_price × quantity
//	discount = subtotal × discountPercent / 100
//	tax      = (subtotal − discount) × 0.19
//	total    = subtotal − discount + tax
//
// All intermediate amounts are rounded to 2 decimal places.
func CalculateTotals(lines []CartLine, loyaltyPoints int) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)

	pct := DiscountPercent(loyaltyPoints)
	discount := subtotal.Mul(decimal.NewFromInt(pct)).Div(oneHundred).Round(2)
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(vatRate).Round(2)
	total := taxable.Add(tax)

	return Totals{
		Subtotal:        subtotal,
		DiscountPercent: pct,
		Discount:        discount,
		Tax:             tax,
		Total:           total,
	}
}

// CalculatePurchaseTotals computes intake totals. Purchases carry no
// loyalty discount: tax is 19% of the full subtotal.
func CalculatePurchaseTotals(lines []CartLine) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(vatRate).Round(2)

	return Totals{
		Subtotal: subtotal,
		Discount: decimal.Zero,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}
