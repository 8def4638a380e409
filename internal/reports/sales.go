package reports

import (
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// SalesRow aggregates the invoices of one bucket (or one customer).
type SalesRow struct {
	Key         string          `json:"key"`
	Label       string          `json:"label"`
	Invoices    int             `json:"invoices"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	Paid        decimal.Decimal `json:"paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

func newSalesRow(key, label string) SalesRow {
	return SalesRow{
		Key:         key,
		Label:       label,
		Subtotal:    decimal.Zero,
		Tax:         decimal.Zero,
		Discount:    decimal.Zero,
		Total:       decimal.Zero,
		Paid:        decimal.Zero,
		Outstanding: decimal.Zero,
	}
}

func (r *SalesRow) add(inv invoiceFacts) {
	r.Invoices++
	r.Subtotal = r.Subtotal.Add(inv.Subtotal)
	r.Tax = r.Tax.Add(inv.TaxAmount)
	r.Discount = r.Discount.Add(inv.DiscountAmount)
	r.Total = r.Total.Add(inv.Total)
	r.Paid = r.Paid.Add(inv.Paid)
	r.Outstanding = r.Total.Sub(r.Paid)
}

// Net is sales after discount and before tax.
func (r SalesRow) Net() decimal.Decimal {
	return r.Subtotal.Sub(r.Discount)
}

// SalesSummary is the sales report: one row per bucket plus a totals band.
type SalesSummary struct {
	Period      Period      `json:"period"`
	Granularity Granularity `json:"granularity"`
	Rows        []SalesRow  `json:"rows"`
	Totals      SalesRow    `json:"totals"`
}

// Sales groups the window's non-void invoices by issue day, or by month when
// the window is longer than DayBucketLimit days. Buckets without invoices are
// omitted.
func (s *Service) Sales(ctx context.Context, p Period) (*SalesSummary, error) {
	g := p.Granularity()
	out := &SalesSummary{Period: p, Granularity: g, Totals: newSalesRow("total", "Total")}

	index := map[string]int{}
	for inv, err := range invoices(s.store.DB().WithContext(ctx), inPeriod(p)) {
		if err != nil {
			return nil, err
		}
		key := g.Key(inv.IssueDate)
		i, ok := index[key]
		if !ok {
			i = len(out.Rows)
			index[key] = i
			out.Rows = append(out.Rows, newSalesRow(key, key))
		}
		out.Rows[i].add(inv)
		out.Totals.add(inv)
	}
	return out, nil
}

// CustomerSales is the sales report grouped by customer, largest net sales
// first.
type CustomerSales struct {
	Period Period     `json:"period"`
	Rows   []SalesRow `json:"rows"`
	Totals SalesRow   `json:"totals"`
}

func (s *Service) CustomerSales(ctx context.Context, p Period) (*CustomerSales, error) {
	out := &CustomerSales{Period: p, Totals: newSalesRow("total", "Total")}

	index := map[uint]int{}
	for inv, err := range invoices(s.store.DB().WithContext(ctx), inPeriod(p)) {
		if err != nil {
			return nil, err
		}
		i, ok := index[inv.CustomerID]
		if !ok {
			i = len(out.Rows)
			index[inv.CustomerID] = i
			out.Rows = append(out.Rows, newSalesRow(idKey(inv.CustomerID), inv.CustomerName))
		}
		out.Rows[i].add(inv)
		out.Totals.add(inv)
	}
	slices.SortStableFunc(out.Rows, func(a, b SalesRow) int {
		if c := b.Net().Cmp(a.Net()); c != 0 {
			return c
		}
		return strings.Compare(a.Label, b.Label)
	})
	return out, nil
}

// TaxRow is one (bucket, rate) pair: the taxable base and the tax charged on
// it. Tax is charged on the subtotal, before discount.
type TaxRow struct {
	Bucket   string          `json:"bucket"`
	Rate     decimal.Decimal `json:"rate"`
	Invoices int             `json:"invoices"`
	Base     decimal.Decimal `json:"taxable_base"`
	Tax      decimal.Decimal `json:"tax"`
}

type TaxReport struct {
	Period      Period          `json:"period"`
	Granularity Granularity     `json:"granularity"`
	Rows        []TaxRow        `json:"rows"`
	Base        decimal.Decimal `json:"taxable_base"`
	Tax         decimal.Decimal `json:"tax"`
}

// Tax groups the window's non-void invoices by bucket and tax rate. Rows are
// ordered by bucket, then rate.
func (s *Service) Tax(ctx context.Context, p Period) (*TaxReport, error) {
	g := p.Granularity()
	out := &TaxReport{Period: p, Granularity: g, Base: decimal.Zero, Tax: decimal.Zero}

	index := map[string]int{}
	for inv, err := range invoices(s.store.DB().WithContext(ctx), inPeriod(p)) {
		if err != nil {
			return nil, err
		}
		bucket := g.Key(inv.IssueDate)
		key := bucket + "|" + inv.TaxRate.String()
		i, ok := index[key]
		if !ok {
			i = len(out.Rows)
			index[key] = i
			out.Rows = append(out.Rows, TaxRow{Bucket: bucket, Rate: inv.TaxRate, Base: decimal.Zero, Tax: decimal.Zero})
		}
		base := inv.Subtotal
		out.Rows[i].Invoices++
		out.Rows[i].Base = out.Rows[i].Base.Add(base)
		out.Rows[i].Tax = out.Rows[i].Tax.Add(inv.TaxAmount)
		out.Base = out.Base.Add(base)
		out.Tax = out.Tax.Add(inv.TaxAmount)
	}
	slices.SortStableFunc(out.Rows, func(a, b TaxRow) int {
		if c := strings.Compare(a.Bucket, b.Bucket); c != 0 {
			return c
		}
		return a.Rate.Cmp(b.Rate)
	})
	return out, nil
}
