// Package stockledger is the append-only record of inventory movements. The
// ledger is the source of truth for item quantities; the quantity column on
// items is a cache that Verify checks and Rebuild can replay.
package stockledger

import (
	"context"
	"iter"
	"time"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// signedSum is the SQL expression for the net effect of a set of entries.
const signedSum = `COALESCE(SUM(CASE
	WHEN kind = 'out' THEN -quantity
	WHEN kind = 'adjust' AND decrease THEN -quantity
	ELSE quantity END), 0)`

// Append inserts one entry. It is the only write the ledger accepts and must
// run inside the unit of work that changes the item's cached quantity.
func Append(tx *gorm.DB, entry *models.StockEntry) error {
	const op = "stockledger.Append"
	if entry.ItemID == 0 {
		return apperr.Validation(op, "item is required")
	}
	if entry.Quantity <= 0 {
		return apperr.Validation(op, "quantity must be positive")
	}
	switch entry.Kind {
	case models.StockIn, models.StockOut:
		entry.Decrease = false
	case models.StockAdjust:
		if entry.Reason == "" {
			return apperr.Validation(op, "adjustment reason is required")
		}
	default:
		return apperr.Validation(op, "unknown movement kind "+string(entry.Kind))
	}
	entry.ID = 0
	if !entry.CreatedAt.IsZero() {
		entry.CreatedAt = models.Instant(entry.CreatedAt)
	}
	return tx.Create(entry).Error
}

// Balance is the signed sum of every entry for the item.
func Balance(db *gorm.DB, itemID uint) (int, error) {
	var n int
	err := db.Model(&models.StockEntry{}).
		Where("item_id = ?", itemID).
		Select(signedSum).Scan(&n).Error
	return n, err
}

// BalanceBefore is the balance from entries strictly earlier than t.
func BalanceBefore(db *gorm.DB, itemID uint, t time.Time) (int, error) {
	var n int
	err := db.Model(&models.StockEntry{}).
		Where("item_id = ? AND created_at < ?", itemID, models.Instant(t)).
		Select(signedSum).Scan(&n).Error
	return n, err
}

// Window is a closed time interval; zero bounds are open.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) apply(q *gorm.DB) *gorm.DB {
	if !w.From.IsZero() {
		q = q.Where("created_at >= ?", models.Instant(w.From))
	}
	if !w.To.IsZero() {
		q = q.Where("created_at <= ?", models.Instant(w.To))
	}
	return q
}

// Totals splits one item's movements over a window by direction.
type Totals struct {
	ItemID     uint `gorm:"-" json:"item_id"`
	In         int  `gorm:"column:qty_in" json:"in"`
	Out        int  `gorm:"column:qty_out" json:"out"`
	AdjustUp   int  `gorm:"column:adjust_up" json:"adjust_up"`
	AdjustDown int  `gorm:"column:adjust_down" json:"adjust_down"`
}

// Net is the signed effect of the window.
func (t Totals) Net() int {
	return t.In + t.AdjustUp - t.Out - t.AdjustDown
}

// Credits counts everything that raised stock.
func (t Totals) Credits() int { return t.In + t.AdjustUp }

// Debits counts everything that lowered stock.
func (t Totals) Debits() int { return t.Out + t.AdjustDown }

func WindowTotals(db *gorm.DB, itemID uint, w Window) (Totals, error) {
	out := Totals{ItemID: itemID}
	q := w.apply(db.Model(&models.StockEntry{}).Where("item_id = ?", itemID))
	err := q.Select(`
		COALESCE(SUM(CASE WHEN kind = 'in' THEN quantity ELSE 0 END), 0) AS qty_in,
		COALESCE(SUM(CASE WHEN kind = 'out' THEN quantity ELSE 0 END), 0) AS qty_out,
		COALESCE(SUM(CASE WHEN kind = 'adjust' AND NOT decrease THEN quantity ELSE 0 END), 0) AS adjust_up,
		COALESCE(SUM(CASE WHEN kind = 'adjust' AND decrease THEN quantity ELSE 0 END), 0) AS adjust_down`).
		Scan(&out).Error
	out.ItemID = itemID
	return out, err
}

// Filter narrows the chronological feed.
type Filter struct {
	ItemID uint
	Kind   models.StockKind
	Window Window
}

// Feed streams entries oldest first, ties broken by insertion order.
func Feed(db *gorm.DB, f Filter) iter.Seq2[models.StockEntry, error] {
	q := db.Model(&models.StockEntry{})
	if f.ItemID != 0 {
		q = q.Where("item_id = ?", f.ItemID)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	q = f.Window.apply(q).Order("created_at").Order("id")
	return database.Stream[models.StockEntry](q)
}

// Discrepancy is an item whose cached quantity disagrees with its ledger.
type Discrepancy struct {
	ItemID uint   `json:"item_id"`
	Name   string `json:"name"`
	Cached int    `json:"cached"`
	Ledger int    `json:"ledger"`
}

// Ledger wraps the readers with the store and a logger for the operator
// tools.
type Ledger struct {
	store *database.Store
	log   *logrus.Entry
}

func New(store *database.Store, logg *logrus.Logger) *Ledger {
	return &Ledger{store: store, log: logg.WithField("module", "stockledger")}
}

func (l *Ledger) Balance(ctx context.Context, itemID uint) (int, error) {
	n, err := Balance(l.store.DB().WithContext(ctx), itemID)
	return n, apperr.Wrap(apperr.KindStorage, "stockledger.Balance", err)
}

func (l *Ledger) Totals(ctx context.Context, itemID uint, w Window) (Totals, error) {
	t, err := WindowTotals(l.store.DB().WithContext(ctx), itemID, w)
	return t, apperr.Wrap(apperr.KindStorage, "stockledger.Totals", err)
}

func (l *Ledger) Feed(ctx context.Context, f Filter) iter.Seq2[models.StockEntry, error] {
	return Feed(l.store.DB().WithContext(ctx), f)
}

type itemBalance struct {
	ID       uint
	Name     string
	Quantity int
	Ledger   int
}

func discrepancies(db *gorm.DB) ([]Discrepancy, error) {
	var rows []itemBalance
	err := db.Table("items").
		Select("items.id, items.name, items.quantity, (SELECT " + signedSum + " FROM stock_entries WHERE stock_entries.item_id = items.id) AS ledger").
		Order("items.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	var out []Discrepancy
	for _, r := range rows {
		if r.Quantity != r.Ledger {
			out = append(out, Discrepancy{ItemID: r.ID, Name: r.Name, Cached: r.Quantity, Ledger: r.Ledger})
		}
	}
	return out, nil
}

// Verify compares every cached quantity to its ledger sum. Disagreements are
// logged and returned together with an invariant error; nothing is repaired.
func (l *Ledger) Verify(ctx context.Context) ([]Discrepancy, error) {
	found, err := discrepancies(l.store.DB().WithContext(ctx))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "stockledger.Verify", err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	for _, d := range found {
		l.log.WithFields(logrus.Fields{
			"item_id": d.ItemID,
			"cached":  d.Cached,
			"ledger":  d.Ledger,
		}).Error("stock quantity disagrees with ledger")
	}
	return found, apperr.New(apperr.KindInvariant, "stockledger.Verify", "cached quantities disagree with the stock ledger")
}

// Rebuild replays the ledger into the cached quantities. It is an explicit
// operator action and returns the rows it changed.
func (l *Ledger) Rebuild(ctx context.Context, actor string) ([]Discrepancy, error) {
	var fixed []Discrepancy
	err := l.store.Run(ctx, func(tx *gorm.DB) error {
		found, err := discrepancies(tx)
		if err != nil {
			return err
		}
		for _, d := range found {
			if d.Ledger < 0 {
				return apperr.New(apperr.KindInvariant, "stockledger.Rebuild",
					"ledger for item "+d.Name+" sums below zero")
			}
			if err := tx.Model(&models.Item{}).Where("id = ?", d.ItemID).Updates(map[string]any{
				"quantity":     d.Ledger,
				"last_updated": l.store.Now(),
				"updated_by":   actor,
			}).Error; err != nil {
				return err
			}
		}
		fixed = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, d := range fixed {
		l.log.WithFields(logrus.Fields{"item_id": d.ItemID, "from": d.Cached, "to": d.Ledger, "actor": actor}).
			Warn("cached quantity rebuilt from ledger")
	}
	return fixed, nil
}
