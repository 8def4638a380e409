// Package reports computes read-only aggregations over committed state. Every
// report is a function of the store, a window and the clock: running it twice
// on the same snapshot returns the same rows. Row sets that grow with the data
// are exposed as iterators.
package reports

import (
	"iter"
	"time"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/settings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DayBucketLimit is the longest window, in days, reported per day; longer
// windows are reported per calendar month.
const DayBucketLimit = 60

type Service struct {
	store    *database.Store
	settings *settings.Service
	log      *logrus.Entry
}

func New(store *database.Store, cfg *settings.Service, logg *logrus.Logger) *Service {
	return &Service{store: store, settings: cfg, log: logg.WithField("module", "reports")}
}

// Today is the civil date reports classify against.
func (s *Service) Today() time.Time {
	return models.CivilDate(s.store.Now())
}

// Period is an inclusive range of civil dates.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewPeriod normalizes both ends to civil dates and checks their order.
func NewPeriod(from, to time.Time) (Period, error) {
	p := Period{From: models.CivilDate(from), To: models.CivilDate(to)}
	if p.To.Before(p.From) {
		return Period{}, apperr.Validation("reports.NewPeriod", "period end is before its start")
	}
	return p, nil
}

// Days is the number of days the window spans.
func (p Period) Days() int {
	return models.DaysBetween(p.From, p.To)
}

// Granularity is DayBucket for windows up to DayBucketLimit days.
func (p Period) Granularity() Granularity {
	if p.Days() <= DayBucketLimit {
		return ByDay
	}
	return ByMonth
}

// Start and End bound timestamps: [Start, End).
func (p Period) Start() time.Time { return p.From }

func (p Period) End() time.Time { return p.To.AddDate(0, 0, 1) }

type Granularity string

const (
	ByDay   Granularity = "day"
	ByMonth Granularity = "month"
)

// Key labels the bucket that t falls in.
func (g Granularity) Key(t time.Time) string {
	if g == ByMonth {
		return t.UTC().Format("2006-01")
	}
	return t.UTC().Format(models.DateLayout)
}

// invoiceRow is one invoice joined to one of its payments (or none).
type invoiceRow struct {
	ID             uint
	Number         string
	CustomerID     uint
	CustomerName   string
	IssueDate      time.Time
	DueDate        time.Time
	Subtotal       decimal.Decimal
	TaxRate        decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	Status         models.InvoiceStatus
	PaymentAmount  decimal.NullDecimal
}

// invoiceFacts is an invoice header with its payments summed.
type invoiceFacts struct {
	ID             uint
	Number         string
	CustomerID     uint
	CustomerName   string
	IssueDate      time.Time
	DueDate        time.Time
	Subtotal       decimal.Decimal
	TaxRate        decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	Status         models.InvoiceStatus
	Paid           decimal.Decimal
}

// invoices streams invoices in chronological order (issue date, then
// allocation order) with their payments summed in Go. scope adds filters on
// the invoices table.
func invoices(db *gorm.DB, scope func(*gorm.DB) *gorm.DB) iter.Seq2[invoiceFacts, error] {
	q := db.Table("invoices").
		Select(`invoices.id, invoices.invoice_number AS number, invoices.customer_id,
			customers.name AS customer_name, invoices.issue_date, invoices.due_date,
			invoices.subtotal, invoices.tax_rate, invoices.tax_amount, invoices.discount_amount,
			invoices.total, invoices.status, payments.amount AS payment_amount`).
		Joins("JOIN customers ON customers.id = invoices.customer_id").
		Joins("LEFT JOIN payments ON payments.invoice_id = invoices.id")
	if scope != nil {
		q = scope(q)
	}
	q = q.Order("invoices.issue_date").Order("invoices.id").Order("payments.id")

	return func(yield func(invoiceFacts, error) bool) {
		var cur invoiceFacts
		have := false
		for row, err := range database.Stream[invoiceRow](q) {
			if err != nil {
				yield(invoiceFacts{}, err)
				return
			}
			if !have || row.ID != cur.ID {
				if have && !yield(cur, nil) {
					return
				}
				cur = invoiceFacts{
					ID:             row.ID,
					Number:         row.Number,
					CustomerID:     row.CustomerID,
					CustomerName:   row.CustomerName,
					IssueDate:      row.IssueDate,
					DueDate:        row.DueDate,
					Subtotal:       row.Subtotal,
					TaxRate:        row.TaxRate,
					TaxAmount:      row.TaxAmount,
					DiscountAmount: row.DiscountAmount,
					Total:          row.Total,
					Status:         row.Status,
					Paid:           decimal.Zero,
				}
				have = true
			}
			if row.PaymentAmount.Valid {
				cur.Paid = cur.Paid.Add(row.PaymentAmount.Decimal)
			}
		}
		if have {
			yield(cur, nil)
		}
	}
}

// inPeriod keeps non-void invoices issued within p.
func inPeriod(p Period) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where("invoices.issue_date >= ? AND invoices.issue_date < ?", p.Start(), p.End()).
			Where("invoices.status <> ?", models.StatusVoid)
	}
}

// pct returns part/whole as a percentage rounded to two places.
func pct(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(decimal.NewFromInt(100)).DivRound(whole, 2)
}
