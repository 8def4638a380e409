// Package money holds the fixed-point helpers shared by billing, payments,
// reports and the document composer. Amounts carry two fractional digits and
// round half-up; rates carry up to four.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	AmountPlaces = 2
	RatePlaces   = 4
)

var (
	Zero = decimal.Zero
	One  = decimal.NewFromInt(1)

	printer = message.NewPrinter(language.English)
)

// Round applies the half-up rule at two places. Amounts in this engine are
// never negative at a rounding boundary, where half-away-from-zero and
// half-up coincide.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPlaces)
}

// Percent returns round-half-up(base × rate, 2).
func Percent(base, rate decimal.Decimal) decimal.Decimal {
	return Round(base.Mul(rate))
}

// LineTotal returns round-half-up(quantity × unitPrice, 2).
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return Round(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// ValidRate reports whether r lies in [0, 1] with at most four places.
func ValidRate(r decimal.Decimal) bool {
	if r.IsNegative() || r.GreaterThan(One) {
		return false
	}
	return r.Equal(r.Round(RatePlaces))
}

// ValidAmount reports whether d is non-negative with at most two places.
func ValidAmount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Round(AmountPlaces))
}

// Parse accepts user-formatted amounts such as "1,234.50" or "₦ 220".
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if neg {
		clean = "-" + clean
	}
	return decimal.NewFromString(clean)
}

// Format renders d with the currency symbol, grouping separators and two
// places, e.g. "₦1,234.50" or "-₦40.00".
func Format(symbol string, d decimal.Decimal) string {
	r := Round(d)
	neg := r.IsNegative()
	if neg {
		r = r.Neg()
	}
	fixed := r.StringFixed(AmountPlaces)
	frac := fixed[len(fixed)-AmountPlaces:]
	s := printer.Sprintf("%d", r.IntPart()) + "." + frac
	if neg {
		return "-" + symbol + s
	}
	return symbol + s
}

// FormatRate renders a fractional rate as a percentage, e.g. 0.075 -> "7.5%".
func FormatRate(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).String() + "%"
}
