package reports

import (
	"context"
	"iter"
	"slices"
	"strconv"
	"strings"
	"time"

	"go-pos-billing/internal/database"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentRow is one received payment with its invoice and customer.
type PaymentRow struct {
	PaymentID     uint            `json:"payment_id"`
	PaidAt        time.Time       `json:"paid_at"`
	InvoiceID     uint            `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerName  string          `json:"customer_name"`
	Method        string          `json:"method"`
	Reference     string          `json:"reference"`
	Amount        decimal.Decimal `json:"amount"`
}

func paymentsIn(db *gorm.DB, p Period) *gorm.DB {
	return db.Table("payments").
		Select(`payments.id AS payment_id, payments.paid_at, payments.invoice_id,
			invoices.invoice_number, customers.name AS customer_name,
			payments.method, payments.reference, payments.amount`).
		Joins("JOIN invoices ON invoices.id = payments.invoice_id").
		Joins("JOIN customers ON customers.id = invoices.customer_id").
		Where("payments.paid_at >= ? AND payments.paid_at < ?", p.Start(), p.End()).
		Order("payments.paid_at").Order("payments.id")
}

// Payments streams every payment received in the window, oldest first.
// Payments held against void invoices are included: the money was received.
func (s *Service) Payments(ctx context.Context, p Period) iter.Seq2[PaymentRow, error] {
	return database.Stream[PaymentRow](paymentsIn(s.store.DB().WithContext(ctx), p))
}

// MethodShare is one payment method's part of the window's collections.
type MethodShare struct {
	Method   string          `json:"method"`
	Payments int             `json:"payments"`
	Amount   decimal.Decimal `json:"amount"`
	Percent  decimal.Decimal `json:"percent"`
}

// Collection is the method breakdown of the payments report.
type Collection struct {
	Period   Period          `json:"period"`
	Methods  []MethodShare   `json:"methods"`
	Payments int             `json:"payments"`
	Total    decimal.Decimal `json:"total"`
}

// Collection sums the window's payments per method, largest amount first,
// with each method's percentage of the window total.
func (s *Service) Collection(ctx context.Context, p Period) (*Collection, error) {
	out := &Collection{Period: p, Total: decimal.Zero}
	index := map[string]int{}
	for row, err := range s.Payments(ctx, p) {
		if err != nil {
			return nil, err
		}
		i, ok := index[row.Method]
		if !ok {
			i = len(out.Methods)
			index[row.Method] = i
			out.Methods = append(out.Methods, MethodShare{Method: row.Method, Amount: decimal.Zero})
		}
		out.Methods[i].Payments++
		out.Methods[i].Amount = out.Methods[i].Amount.Add(row.Amount)
		out.Payments++
		out.Total = out.Total.Add(row.Amount)
	}
	for i := range out.Methods {
		out.Methods[i].Percent = pct(out.Methods[i].Amount, out.Total)
	}
	slices.SortStableFunc(out.Methods, func(a, b MethodShare) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return strings.Compare(a.Method, b.Method)
	})
	return out, nil
}

func idKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
