package reports

import (
	"context"
	"iter"
	"time"

	"go-pos-billing/internal/billing"
	"go-pos-billing/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CriticalAfterDays is how many days past due an invoice must be to be
// classified critical.
const CriticalAfterDays = 30

// Class is the collection position of an outstanding row.
type Class string

const (
	ClassCurrent     Class = "current"
	ClassOverdue     Class = "overdue"
	ClassCritical    Class = "critical"
	ClassOverpayment Class = "overpayment"
)

// Classify buckets a due invoice by how late it is.
func Classify(daysOverdue int) Class {
	switch {
	case daysOverdue > CriticalAfterDays:
		return ClassCritical
	case daysOverdue > 0:
		return ClassOverdue
	default:
		return ClassCurrent
	}
}

// OutstandingRow is an invoice with money still owed, or one holding more
// money than it is owed (Overpaid > 0).
type OutstandingRow struct {
	InvoiceID    uint                 `json:"invoice_id"`
	Number       string               `json:"invoice_number"`
	CustomerID   uint                 `json:"customer_id"`
	CustomerName string               `json:"customer_name"`
	IssueDate    time.Time            `json:"issue_date"`
	DueDate      time.Time            `json:"due_date"`
	Status       models.InvoiceStatus `json:"status"`
	Total        decimal.Decimal      `json:"total"`
	Paid         decimal.Decimal      `json:"paid"`
	Balance      decimal.Decimal      `json:"balance"`
	Overpaid     decimal.Decimal      `json:"overpaid"`
	DaysOverdue  int                  `json:"days_overdue"`
	Class        Class                `json:"class"`
}

// outstandingRow classifies inv against today; ok is false when the invoice
// is settled exactly.
func outstandingRow(inv invoiceFacts, today time.Time) (OutstandingRow, bool) {
	status := billing.DeriveStatus(inv.Status, inv.Paid, inv.Total, inv.DueDate, today)
	row := OutstandingRow{
		InvoiceID:    inv.ID,
		Number:       inv.Number,
		CustomerID:   inv.CustomerID,
		CustomerName: inv.CustomerName,
		IssueDate:    inv.IssueDate,
		DueDate:      inv.DueDate,
		Status:       status,
		Total:        inv.Total,
		Paid:         inv.Paid,
		Balance:      inv.Total.Sub(inv.Paid),
		Overpaid:     decimal.Zero,
	}

	owed := inv.Total
	if status == models.StatusVoid {
		// nothing is owed on a void invoice; any payment is to be returned
		owed = decimal.Zero
		row.Balance = inv.Paid.Neg()
	}
	if inv.Paid.GreaterThan(owed) {
		row.Overpaid = inv.Paid.Sub(owed)
		row.Class = ClassOverpayment
		return row, true
	}

	switch status {
	case models.StatusUnpaid, models.StatusPartial, models.StatusOverdue:
		row.DaysOverdue = max(0, models.DaysBetween(inv.DueDate, today))
		row.Class = Classify(row.DaysOverdue)
		return row, true
	default:
		return OutstandingRow{}, false
	}
}

// Outstanding streams every invoice that is unpaid, partial or overdue as of
// today, plus overpayment rows, in issue order. It is not windowed: a debt
// stays outstanding whatever its age.
func (s *Service) Outstanding(ctx context.Context) iter.Seq2[OutstandingRow, error] {
	return s.outstanding(s.store.DB().WithContext(ctx), s.Today())
}

func (s *Service) outstanding(db *gorm.DB, today time.Time) iter.Seq2[OutstandingRow, error] {
	return func(yield func(OutstandingRow, error) bool) {
		for inv, err := range invoices(db, nil) {
			if err != nil {
				yield(OutstandingRow{}, err)
				return
			}
			row, ok := outstandingRow(inv, today)
			if !ok {
				continue
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// ClassTotal is the count and balance of one class.
type ClassTotal struct {
	Invoices int             `json:"invoices"`
	Amount   decimal.Decimal `json:"amount"`
}

// OutstandingSummary is the totals band of the outstanding report. Amount is
// the balance owed for the due classes and the excess held for overpayments.
type OutstandingSummary struct {
	AsOf    time.Time            `json:"as_of"`
	Classes map[Class]ClassTotal `json:"classes"`
	Owed    decimal.Decimal      `json:"owed"`
}

func (s *Service) OutstandingSummary(ctx context.Context) (*OutstandingSummary, error) {
	today := s.Today()
	out := &OutstandingSummary{AsOf: today, Classes: map[Class]ClassTotal{}, Owed: decimal.Zero}
	for _, c := range []Class{ClassCurrent, ClassOverdue, ClassCritical, ClassOverpayment} {
		out.Classes[c] = ClassTotal{Amount: decimal.Zero}
	}
	for row, err := range s.outstanding(s.store.DB().WithContext(ctx), today) {
		if err != nil {
			return nil, err
		}
		ct := out.Classes[row.Class]
		ct.Invoices++
		if row.Class == ClassOverpayment {
			ct.Amount = ct.Amount.Add(row.Overpaid)
		} else {
			ct.Amount = ct.Amount.Add(row.Balance)
			out.Owed = out.Owed.Add(row.Balance)
		}
		out.Classes[row.Class] = ct
	}
	return out, nil
}
