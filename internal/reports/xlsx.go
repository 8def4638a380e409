package reports

import (
	"context"
	"fmt"
	"io"
	"iter"
	"time"

	"go-pos-billing/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Table is a report flattened for export: a header row and a stream of value
// rows, followed by an optional totals row.
type Table struct {
	Name   string
	Header []string
	Rows   iter.Seq2[[]any, error]
	Totals []any
}

func sliceRows[T any](rows []T, cells func(T) []any) iter.Seq2[[]any, error] {
	return func(yield func([]any, error) bool) {
		for _, r := range rows {
			if !yield(cells(r), nil) {
				return
			}
		}
	}
}

func streamRows[T any](seq iter.Seq2[T, error], cells func(T) []any) iter.Seq2[[]any, error] {
	return func(yield func([]any, error) bool) {
		for r, err := range seq {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(cells(r), nil) {
				return
			}
		}
	}
}

func salesCells(r SalesRow) []any {
	return []any{r.Label, r.Invoices, r.Subtotal, r.Tax, r.Discount, r.Total, r.Paid, r.Outstanding}
}

var salesHeader = []string{"Bucket", "Invoices", "Subtotal", "Tax", "Discount", "Total", "Paid", "Outstanding"}

func (r *SalesSummary) Table() Table {
	return Table{Name: "Sales", Header: salesHeader, Rows: sliceRows(r.Rows, salesCells), Totals: salesCells(r.Totals)}
}

func (r *CustomerSales) Table() Table {
	header := append([]string{"Customer"}, salesHeader[1:]...)
	return Table{Name: "Customer Sales", Header: header, Rows: sliceRows(r.Rows, salesCells), Totals: salesCells(r.Totals)}
}

func (r *TaxReport) Table() Table {
	return Table{
		Name:   "Tax",
		Header: []string{"Bucket", "Rate", "Invoices", "Taxable Base", "Tax"},
		Rows: sliceRows(r.Rows, func(t TaxRow) []any {
			return []any{t.Bucket, t.Rate, t.Invoices, t.Base, t.Tax}
		}),
		Totals: []any{"Total", nil, nil, r.Base, r.Tax},
	}
}

func (r *Collection) Table() Table {
	return Table{
		Name:   "Collection",
		Header: []string{"Method", "Payments", "Amount", "Percent"},
		Rows: sliceRows(r.Methods, func(m MethodShare) []any {
			return []any{m.Method, m.Payments, m.Amount, m.Percent}
		}),
		Totals: []any{"Total", r.Payments, r.Total, decimal.NewFromInt(100)},
	}
}

// PaymentsTable exports the chronological payment list of the window.
func (s *Service) PaymentsTable(ctx context.Context, p Period) Table {
	return Table{
		Name:   "Payments",
		Header: []string{"Paid At", "Invoice", "Customer", "Method", "Reference", "Amount"},
		Rows: streamRows(s.Payments(ctx, p), func(r PaymentRow) []any {
			return []any{r.PaidAt, r.InvoiceNumber, r.CustomerName, r.Method, r.Reference, r.Amount}
		}),
	}
}

func (s *Service) OutstandingTable(ctx context.Context) Table {
	return Table{
		Name:   "Outstanding",
		Header: []string{"Invoice", "Customer", "Issue Date", "Due Date", "Status", "Total", "Paid", "Balance", "Overpaid", "Days Overdue", "Class"},
		Rows: streamRows(s.Outstanding(ctx), func(r OutstandingRow) []any {
			return []any{r.Number, r.CustomerName, civil(r.IssueDate), civil(r.DueDate), string(r.Status),
				r.Total, r.Paid, r.Balance, r.Overpaid, r.DaysOverdue, string(r.Class)}
		}),
	}
}

func (s *Service) ValuationTable(ctx context.Context) Table {
	return Table{
		Name:   "Valuation",
		Header: []string{"Item", "Category", "Quantity", "Unit Price", "Value"},
		Rows: streamRows(s.Valuation(ctx), func(r ValuationRow) []any {
			return []any{r.Name, r.Category, r.Quantity, r.UnitPrice, r.Value}
		}),
	}
}

func (s *Service) MovementTable(ctx context.Context, p Period) Table {
	return Table{
		Name:   "Item Movement",
		Header: []string{"Item", "Category", "Opening", "In", "Out", "Closing"},
		Rows: streamRows(s.Movement(ctx, p), func(r MovementRow) []any {
			return []any{r.Name, r.Category, r.Opening, r.In, r.Out, r.Closing}
		}),
	}
}

func civil(t time.Time) string {
	return t.UTC().Format(models.DateLayout)
}

// cellValue maps report values onto types excelize writes natively.
func cellValue(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.InexactFloat64()
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return v
	}
}

// WriteXLSX renders each table on its own sheet and writes the workbook to w.
func WriteXLSX(w io.Writer, tables ...Table) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		sheet := t.Name
		if len(sheet) > 31 {
			sheet = sheet[:31]
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}

		header := make([]any, len(t.Header))
		for j, h := range t.Header {
			header[j] = h
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return err
		}

		rowNo := 2
		if t.Rows != nil {
			for cells, err := range t.Rows {
				if err != nil {
					return err
				}
				if err := writeRow(f, sheet, rowNo, cells); err != nil {
					return err
				}
				rowNo++
			}
		}
		if t.Totals != nil {
			if err := writeRow(f, sheet, rowNo, t.Totals); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNo int, cells []any) error {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = cellValue(c)
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &out)
}
