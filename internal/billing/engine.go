// Package billing is the invoice engine: in-memory drafts, totals, the atomic
// commit that numbers an invoice and takes its stock, void, and the status
// state machine driven by the payment ledger.
package billing

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/money"
	"go-pos-billing/internal/settings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DraftTTL is how long an untouched draft survives before it is dropped.
const DraftTTL = 24 * time.Hour

// DraftLine is one line of a draft with its price and description snapshot.
type DraftLine struct {
	ItemID      uint            `json:"item_id"`
	ItemName    string          `json:"item_name"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (l DraftLine) Qty() int { return l.Quantity }

func (l DraftLine) Price() decimal.Decimal { return l.UnitPrice }

// LineTotal is quantity × unit price, rounded.
func (l DraftLine) LineTotal() decimal.Decimal {
	return money.LineTotal(l.Quantity, l.UnitPrice)
}

// Draft is an invoice under construction. Nothing is persisted and no number
// is allocated until Commit.
type Draft struct {
	ID           string          `json:"id"`
	CustomerID   uint            `json:"customer_id"`
	Lines        []DraftLine     `json:"lines"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	DiscountRate decimal.Decimal `json:"discount_rate"`
	IssueDate    time.Time       `json:"issue_date"`
	DueDate      time.Time       `json:"due_date"`
	Notes        string          `json:"notes"`
	Touched      time.Time       `json:"-"`

	committing bool
}

func (d *Draft) clone() Draft {
	out := *d
	out.Lines = slices.Clone(d.Lines)
	return out
}

// Totals computes the draft's money band.
func (d *Draft) Totals() Totals {
	return ComputeTotals(d.Lines, d.TaxRate, d.DiscountRate)
}

// Engine owns the draft table and every invoice write.
type Engine struct {
	store    *database.Store
	settings *settings.Service
	log      *logrus.Entry

	mu     sync.Mutex
	drafts map[string]*Draft
}

func New(store *database.Store, cfg *settings.Service, logg *logrus.Logger) *Engine {
	return &Engine{
		store:    store,
		settings: cfg,
		log:      logg.WithField("module", "billing"),
		drafts:   make(map[string]*Draft),
	}
}

// Today is the current civil date on the store clock.
func (e *Engine) Today() time.Time {
	return models.CivilDate(e.store.Now())
}

// OpenDraft starts a draft for an existing customer, seeded with the default
// tax rate and due-day offset.
func (e *Engine) OpenDraft(ctx context.Context, customerID uint) (string, error) {
	const op = "billing.OpenDraft"
	var customer models.Customer
	if err := e.store.DB().WithContext(ctx).First(&customer, customerID).Error; err != nil {
		return "", database.Lookup(err, op, "customer", customerID)
	}
	snap, err := e.settings.Get(ctx)
	if err != nil {
		return "", err
	}

	today := e.Today()
	d := &Draft{
		ID:           uuid.NewString(),
		CustomerID:   customerID,
		TaxRate:      snap.DefaultTaxRate,
		DiscountRate: decimal.Zero,
		IssueDate:    today,
		DueDate:      today.AddDate(0, 0, snap.DefaultDueDays),
		Touched:      e.store.Now(),
	}

	e.mu.Lock()
	e.pruneLocked()
	e.drafts[d.ID] = d
	e.mu.Unlock()
	return d.ID, nil
}

func (e *Engine) pruneLocked() {
	cutoff := e.store.Now().Add(-DraftTTL)
	for id, d := range e.drafts {
		if !d.committing && d.Touched.Before(cutoff) {
			delete(e.drafts, id)
		}
	}
}

// withDraft runs fn on the live draft under the engine lock. A draft that is
// being committed is frozen.
func (e *Engine) withDraft(op, id string, fn func(d *Draft) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.drafts[id]
	if !ok {
		return apperr.NotFound(op, "draft", id)
	}
	if d.committing {
		return apperr.InUse(op, "draft", id)
	}
	if err := fn(d); err != nil {
		return err
	}
	d.Touched = e.store.Now()
	return nil
}

// readDraft runs fn on the live draft without changing it; frozen drafts can
// still be read.
func (e *Engine) readDraft(op, id string, fn func(d *Draft)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.drafts[id]
	if !ok {
		return apperr.NotFound(op, "draft", id)
	}
	fn(d)
	return nil
}

// claim freezes the draft for a commit and returns its contents. Only one
// claim on a draft can be outstanding.
func (e *Engine) claim(op, id string) (Draft, error) {
	var out Draft
	err := e.withDraft(op, id, func(d *Draft) error {
		d.committing = true
		out = d.clone()
		return nil
	})
	return out, err
}

// release unfreezes a draft whose commit failed so it can be fixed and
// committed again.
func (e *Engine) release(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d, ok := e.drafts[id]; ok {
		d.committing = false
		d.Touched = e.store.Now()
	}
}

// Draft returns a copy of the draft.
func (e *Engine) Draft(id string) (Draft, error) {
	var out Draft
	err := e.readDraft("billing.Draft", id, func(d *Draft) {
		out = d.clone()
	})
	return out, err
}

// LineInput describes a line to add or replace. Nil overrides keep the
// item's current description and unit price.
type LineInput struct {
	ItemID      uint             `json:"item_id"`
	Quantity    int              `json:"quantity"`
	Description *string          `json:"description,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
}

func (e *Engine) resolveLine(ctx context.Context, op string, in LineInput) (DraftLine, error) {
	if in.Quantity <= 0 {
		return DraftLine{}, apperr.Validation(op, "quantity must be positive")
	}
	var item models.Item
	if err := e.store.DB().WithContext(ctx).First(&item, in.ItemID).Error; err != nil {
		return DraftLine{}, database.Lookup(err, op, "item", in.ItemID)
	}
	line := DraftLine{
		ItemID:      item.ID,
		ItemName:    item.Name,
		Description: item.Description,
		Quantity:    in.Quantity,
		UnitPrice:   item.UnitPrice,
	}
	if in.Description != nil {
		line.Description = strings.TrimSpace(*in.Description)
	}
	if in.UnitPrice != nil {
		if !money.ValidAmount(*in.UnitPrice) {
			return DraftLine{}, apperr.Validation(op, "unit price must be a non-negative amount with at most two decimals")
		}
		line.UnitPrice = *in.UnitPrice
	}
	return line, nil
}

// AddLine appends a line and returns its index. Stock is not checked or
// taken until Commit.
func (e *Engine) AddLine(ctx context.Context, draftID string, in LineInput) (int, error) {
	const op = "billing.AddLine"
	line, err := e.resolveLine(ctx, op, in)
	if err != nil {
		return 0, err
	}
	var idx int
	err = e.withDraft(op, draftID, func(d *Draft) error {
		d.Lines = append(d.Lines, line)
		idx = len(d.Lines) - 1
		return nil
	})
	return idx, err
}

// UpdateLine replaces the line at index.
func (e *Engine) UpdateLine(ctx context.Context, draftID string, index int, in LineInput) error {
	const op = "billing.UpdateLine"
	line, err := e.resolveLine(ctx, op, in)
	if err != nil {
		return err
	}
	return e.withDraft(op, draftID, func(d *Draft) error {
		if index < 0 || index >= len(d.Lines) {
			return apperr.NotFound(op, "line", index)
		}
		d.Lines[index] = line
		return nil
	})
}

// RemoveLine deletes the line at index; later lines move up.
func (e *Engine) RemoveLine(draftID string, index int) error {
	const op = "billing.RemoveLine"
	return e.withDraft(op, draftID, func(d *Draft) error {
		if index < 0 || index >= len(d.Lines) {
			return apperr.NotFound(op, "line", index)
		}
		d.Lines = slices.Delete(d.Lines, index, index+1)
		return nil
	})
}

// SetRates sets tax and discount rates, each within [0, 1].
func (e *Engine) SetRates(draftID string, taxRate, discountRate decimal.Decimal) error {
	const op = "billing.SetRates"
	if !money.ValidRate(taxRate) || !money.ValidRate(discountRate) {
		return apperr.Validation(op, apperr.MsgRateOutOfRange)
	}
	return e.withDraft(op, draftID, func(d *Draft) error {
		d.TaxRate = taxRate
		d.DiscountRate = discountRate
		return nil
	})
}

// SetDates sets the civil issue and due dates. A zero issue date means today;
// a zero due date means issue + default_due_days.
func (e *Engine) SetDates(ctx context.Context, draftID string, issue, due time.Time) error {
	const op = "billing.SetDates"
	if issue.IsZero() {
		issue = e.Today()
	}
	issue = models.CivilDate(issue)
	if due.IsZero() {
		snap, err := e.settings.Get(ctx)
		if err != nil {
			return err
		}
		due = issue.AddDate(0, 0, snap.DefaultDueDays)
	}
	due = models.CivilDate(due)
	if due.Before(issue) {
		return apperr.Validation(op, apperr.MsgInvalidDueDate)
	}
	return e.withDraft(op, draftID, func(d *Draft) error {
		d.IssueDate = issue
		d.DueDate = due
		return nil
	})
}

func (e *Engine) SetNotes(draftID, notes string) error {
	return e.withDraft("billing.SetNotes", draftID, func(d *Draft) error {
		d.Notes = strings.TrimSpace(notes)
		return nil
	})
}

// ComputeTotals is the pure totals of the draft as it stands.
func (e *Engine) ComputeTotals(draftID string) (Totals, error) {
	var t Totals
	err := e.readDraft("billing.ComputeTotals", draftID, func(d *Draft) {
		t = d.Totals()
	})
	return t, err
}

// Discard drops a draft. Abandoning a draft is the only form of cancellation.
func (e *Engine) Discard(draftID string) {
	e.mu.Lock()
	delete(e.drafts, draftID)
	e.mu.Unlock()
}
