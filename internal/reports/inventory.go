package reports

import (
	"context"
	"iter"

	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"

	"github.com/shopspring/decimal"
)

// ValuationRow is one item's extended value at its current price.
type ValuationRow struct {
	ItemID    uint            `json:"item_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Value     decimal.Decimal `json:"value"`
}

// Valuation streams every item by category, then name.
func (s *Service) Valuation(ctx context.Context) iter.Seq2[ValuationRow, error] {
	q := s.store.DB().WithContext(ctx).Model(&models.Item{}).
		Order("category").Order("name").Order("id")
	return func(yield func(ValuationRow, error) bool) {
		for item, err := range database.Stream[models.Item](q) {
			if err != nil {
				yield(ValuationRow{}, err)
				return
			}
			row := ValuationRow{
				ItemID:    item.ID,
				Name:      item.Name,
				Category:  item.Category,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Value:     item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

type CategoryValue struct {
	Category string          `json:"category"`
	Items    int             `json:"items"`
	Quantity int             `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
}

// ValuationTotals is the totals band of the valuation report.
type ValuationTotals struct {
	Categories []CategoryValue `json:"categories"`
	Items      int             `json:"items"`
	Quantity   int             `json:"quantity"`
	Value      decimal.Decimal `json:"value"`
}

func (s *Service) ValuationTotals(ctx context.Context) (*ValuationTotals, error) {
	out := &ValuationTotals{Value: decimal.Zero}
	for row, err := range s.Valuation(ctx) {
		if err != nil {
			return nil, err
		}
		// rows arrive grouped by category
		n := len(out.Categories)
		if n == 0 || out.Categories[n-1].Category != row.Category {
			out.Categories = append(out.Categories, CategoryValue{Category: row.Category, Value: decimal.Zero})
			n++
		}
		c := &out.Categories[n-1]
		c.Items++
		c.Quantity += row.Quantity
		c.Value = c.Value.Add(row.Value)

		out.Items++
		out.Quantity += row.Quantity
		out.Value = out.Value.Add(row.Value)
	}
	return out, nil
}

// MovementRow is one item's stock over a window: Closing = Opening + In - Out.
// Upward adjustments count as In and downward ones as Out.
type MovementRow struct {
	ItemID   uint   `json:"item_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Opening  int    `json:"opening"`
	In       int    `gorm:"column:qty_in" json:"in"`
	Out      int    `gorm:"column:qty_out" json:"out"`
	Closing  int    `gorm:"-" json:"closing"`
}

const movementSQL = `
SELECT
	items.id AS item_id,
	items.name,
	items.category,
	COALESCE(SUM(CASE
		WHEN e.created_at >= @start THEN 0
		WHEN e.kind = 'out' THEN -e.quantity
		WHEN e.kind = 'adjust' AND e.decrease THEN -e.quantity
		ELSE e.quantity END), 0) AS opening,
	COALESCE(SUM(CASE
		WHEN e.created_at < @start THEN 0
		WHEN e.kind = 'in' THEN e.quantity
		WHEN e.kind = 'adjust' AND NOT e.decrease THEN e.quantity
		ELSE 0 END), 0) AS qty_in,
	COALESCE(SUM(CASE
		WHEN e.created_at < @start THEN 0
		WHEN e.kind = 'out' THEN e.quantity
		WHEN e.kind = 'adjust' AND e.decrease THEN e.quantity
		ELSE 0 END), 0) AS qty_out
FROM items
LEFT JOIN stock_entries e ON e.item_id = items.id AND e.created_at < @end
GROUP BY items.id, items.name, items.category
ORDER BY items.category, items.name, items.id`

// Movement streams opening, in, out and closing quantities for every item
// over the window. The opening balance is derived from ledger entries before
// the window starts.
func (s *Service) Movement(ctx context.Context, p Period) iter.Seq2[MovementRow, error] {
	q := s.store.DB().WithContext(ctx).Raw(movementSQL, map[string]interface{}{
		"start": p.Start(),
		"end":   p.End(),
	})
	return func(yield func(MovementRow, error) bool) {
		for row, err := range database.Stream[MovementRow](q) {
			if err != nil {
				yield(MovementRow{}, err)
				return
			}
			row.Closing = row.Opening + row.In - row.Out
			if !yield(row, nil) {
				return
			}
		}
	}
}
