package billing

import (
	"context"
	"fmt"
	"time"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/money"
	"go-pos-billing/internal/numbering"
	"go-pos-billing/internal/stockledger"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Commit turns a draft into a numbered invoice in one unit of work: stock is
// re-read and checked for every line, the number is allocated, header and
// lines are inserted, each item is decremented and an `out` ledger entry per
// line is tagged with the invoice number. Any failure leaves the store as it
// was, including the numbering counter. The draft is frozen while the commit
// runs: a second Commit or any edit fails in-use. It is dropped on success and
// unfrozen on failure.
func (e *Engine) Commit(ctx context.Context, draftID, actor string) (*models.Invoice, error) {
	const op = "billing.Commit"
	draft, err := e.claim(op, draftID)
	if err != nil {
		return nil, err
	}
	inv, err := e.commitClaimed(ctx, op, draft, actor)
	if err != nil {
		e.release(draftID)
		return nil, err
	}
	e.Discard(draftID)
	e.log.WithFields(logrus.Fields{
		"invoice": inv.Number,
		"total":   inv.Total.String(),
		"lines":   len(inv.Lines),
		"actor":   actor,
	}).Info("invoice committed")
	return inv, nil
}

func (e *Engine) commitClaimed(ctx context.Context, op string, draft Draft, actor string) (*models.Invoice, error) {
	if len(draft.Lines) == 0 {
		return nil, apperr.Validation(op, apperr.MsgEmptyInvoice)
	}
	if draft.DueDate.Before(draft.IssueDate) {
		return nil, apperr.Validation(op, apperr.MsgInvalidDueDate)
	}
	snap, err := e.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	var inv *models.Invoice
	err = e.store.RunWithRetry(ctx, snap.NumberingRetryLimit, func(tx *gorm.DB) error {
		var err error
		inv, err = e.commit(tx, op, draft, actor)
		return err
	})
	// The counter row moved inside the unit of work.
	e.settings.Invalidate()
	return inv, err
}

func (e *Engine) commit(tx *gorm.DB, op string, draft Draft, actor string) (*models.Invoice, error) {
	var customer models.Customer
	if err := tx.First(&customer, draft.CustomerID).Error; err != nil {
		return nil, database.Lookup(err, op, "customer", draft.CustomerID)
	}

	// Re-read stock under the transaction. Several lines may draw on the same
	// item, so availability is tracked as it is consumed.
	remaining := make(map[uint]int)
	var shortages []apperr.Shortage
	for i, line := range draft.Lines {
		avail, seen := remaining[line.ItemID]
		if !seen {
			var item models.Item
			if err := tx.First(&item, line.ItemID).Error; err != nil {
				return nil, database.Lookup(err, op, "item", line.ItemID)
			}
			avail = item.Quantity
		}
		if line.Quantity > avail {
			shortages = append(shortages, apperr.Shortage{
				LineIndex: i,
				ItemID:    line.ItemID,
				ItemName:  line.ItemName,
				Requested: line.Quantity,
				Available: avail,
			})
		} else {
			avail -= line.Quantity
		}
		remaining[line.ItemID] = avail
	}
	if len(shortages) > 0 {
		return nil, &apperr.StockError{Op: op, Shortages: shortages}
	}

	number, err := numbering.Next(tx)
	if err != nil {
		return nil, err
	}

	now := e.store.Now()
	totals := draft.Totals()
	inv := &models.Invoice{
		Number:         number.String(),
		CustomerID:     draft.CustomerID,
		IssueDate:      draft.IssueDate,
		DueDate:        draft.DueDate,
		Subtotal:       totals.Subtotal,
		TaxRate:        draft.TaxRate,
		TaxAmount:      totals.Tax,
		DiscountRate:   draft.DiscountRate,
		DiscountAmount: totals.Discount,
		Total:          totals.Total,
		Status:         DeriveStatus(models.StatusUnpaid, decimal.Zero, totals.Total, draft.DueDate, models.CivilDate(now)),
		Notes:          draft.Notes,
		CreatedAt:      now,
		CreatedBy:      actor,
	}
	for i, line := range draft.Lines {
		inv.Lines = append(inv.Lines, models.InvoiceLine{
			Position:    i,
			ItemID:      line.ItemID,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   money.LineTotal(line.Quantity, line.UnitPrice),
		})
	}
	if err := tx.Create(inv).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return nil, &apperr.Error{Kind: apperr.KindNumberingConflict, Op: op, Message: "invoice number " + inv.Number + " taken", Err: err}
		}
		return nil, err
	}

	for i, line := range draft.Lines {
		if err := takeStock(tx, op, i, line, now, actor); err != nil {
			return nil, err
		}
		if err := stockledger.Append(tx, &models.StockEntry{
			ItemID:    line.ItemID,
			Kind:      models.StockOut,
			Quantity:  line.Quantity,
			Reference: inv.Number,
			Note:      fmt.Sprintf("invoice %s line %d", inv.Number, i+1),
			Actor:     actor,
		}); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

// takeStock decrements one item only if it still holds enough.
func takeStock(tx *gorm.DB, op string, index int, line DraftLine, now time.Time, actor string) error {
	res := tx.Model(&models.Item{}).
		Where("id = ? AND quantity >= ?", line.ItemID, line.Quantity).
		Updates(map[string]any{
			"quantity":     gorm.Expr("quantity - ?", line.Quantity),
			"last_updated": now,
			"updated_by":   actor,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var item models.Item
		_ = tx.First(&item, line.ItemID).Error
		return &apperr.StockError{Op: op, Shortages: []apperr.Shortage{{
			LineIndex: index,
			ItemID:    line.ItemID,
			ItemName:  line.ItemName,
			Requested: line.Quantity,
			Available: item.Quantity,
		}}}
	}
	return nil
}

// CreateRequest is a whole invoice in one call, the self-checkout path. Nil
// rates and zero dates take the configured defaults.
type CreateRequest struct {
	CustomerID   uint             `json:"customer_id"`
	Lines        []LineInput      `json:"lines"`
	TaxRate      *decimal.Decimal `json:"tax_rate,omitempty"`
	DiscountRate *decimal.Decimal `json:"discount_rate,omitempty"`
	IssueDate    time.Time        `json:"issue_date"`
	DueDate      time.Time        `json:"due_date"`
	Notes        string           `json:"notes"`
}

// Create builds a draft from req and commits it. The draft never outlives the
// call.
func (e *Engine) Create(ctx context.Context, req CreateRequest, actor string) (*models.Invoice, error) {
	id, err := e.OpenDraft(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	defer e.Discard(id)

	for _, l := range req.Lines {
		if _, err := e.AddLine(ctx, id, l); err != nil {
			return nil, err
		}
	}
	if req.TaxRate != nil || req.DiscountRate != nil {
		d, err := e.Draft(id)
		if err != nil {
			return nil, err
		}
		tax, discount := d.TaxRate, d.DiscountRate
		if req.TaxRate != nil {
			tax = *req.TaxRate
		}
		if req.DiscountRate != nil {
			discount = *req.DiscountRate
		}
		if err := e.SetRates(id, tax, discount); err != nil {
			return nil, err
		}
	}
	if !req.IssueDate.IsZero() || !req.DueDate.IsZero() {
		if err := e.SetDates(ctx, id, req.IssueDate, req.DueDate); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		if err := e.SetNotes(id, req.Notes); err != nil {
			return nil, err
		}
	}
	return e.Commit(ctx, id, actor)
}
