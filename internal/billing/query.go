package billing

import (
	"context"
	"time"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func orderLines(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// InvoiceView is an invoice as read: its status is derived for today and it
// carries the payment position.
type InvoiceView struct {
	models.Invoice
	AmountPaid decimal.Decimal `json:"amount_paid"`
	BalanceDue decimal.Decimal `json:"balance_due"`
}

func (e *Engine) view(db *gorm.DB, inv models.Invoice, today time.Time) (InvoiceView, error) {
	paid, err := PaidAmount(db, inv.ID)
	if err != nil {
		return InvoiceView{}, err
	}
	inv.Status = DeriveStatus(inv.Status, paid, inv.Total, inv.DueDate, today)
	return InvoiceView{Invoice: inv, AmountPaid: paid, BalanceDue: inv.Total.Sub(paid)}, nil
}

// Get returns an invoice with its lines in display order.
func (e *Engine) Get(ctx context.Context, id uint) (*InvoiceView, error) {
	const op = "billing.Get"
	db := e.store.DB().WithContext(ctx)
	var inv models.Invoice
	if err := db.Preload("Lines", orderLines).First(&inv, id).Error; err != nil {
		return nil, database.Lookup(err, op, "invoice", id)
	}
	v, err := e.view(db, inv, e.Today())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, op, err)
	}
	return &v, nil
}

// GetByNumber looks an invoice up by its number.
func (e *Engine) GetByNumber(ctx context.Context, number string) (*InvoiceView, error) {
	var inv models.Invoice
	if err := e.store.DB().WithContext(ctx).Select("id").Where("invoice_number = ?", number).First(&inv).Error; err != nil {
		return nil, database.Lookup(err, "billing.GetByNumber", "invoice", number)
	}
	return e.Get(ctx, inv.ID)
}

// ListFilter narrows List. Status filters on the derived status.
type ListFilter struct {
	CustomerID uint
	Status     models.InvoiceStatus
	From       time.Time
	To         time.Time
	Limit      int
}

// List returns invoice headers (no lines) by issue date, then number order.
func (e *Engine) List(ctx context.Context, f ListFilter) ([]InvoiceView, error) {
	const op = "billing.List"
	db := e.store.DB().WithContext(ctx)
	q := db.Model(&models.Invoice{})
	if f.CustomerID != 0 {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if !f.From.IsZero() {
		q = q.Where("issue_date >= ?", models.CivilDate(f.From))
	}
	if !f.To.IsZero() {
		q = q.Where("issue_date <= ?", models.CivilDate(f.To))
	}
	q = q.Order("issue_date").Order("id")

	today := e.Today()
	var out []InvoiceView
	for inv, err := range database.Stream[models.Invoice](q) {
		if err != nil {
			return nil, err
		}
		v, err := e.view(db, inv, today)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindStorage, op, err)
		}
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		out = append(out, v)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}
