package billing

import (
	"go-pos-billing/internal/money"

	"github.com/shopspring/decimal"
)

// Totals is the computed money band of an invoice.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Priced is anything with a quantity and a unit price.
type Priced interface {
	Qty() int
	Price() decimal.Decimal
}

// ComputeTotals applies the rounding rule: each line total is rounded half-up
// to two places, the subtotal is the exact sum of those, tax and discount are
// rounded on the subtotal, and total = subtotal + tax - discount.
func ComputeTotals[L Priced](lines []L, taxRate, discountRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(money.LineTotal(l.Qty(), l.Price()))
	}
	tax := money.Percent(subtotal, taxRate)
	discount := money.Percent(subtotal, discountRate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    subtotal.Add(tax).Sub(discount),
	}
}
