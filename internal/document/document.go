// Package document builds the render-ready value of a committed invoice.
// Every amount is formatted here, so renderers print strings and never do
// arithmetic.
package document

import (
	"context"
	"time"

	"go-pos-billing/internal/billing"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/money"
	"go-pos-billing/internal/settings"

	"github.com/sirupsen/logrus"
)

// Party is a name and contact block on the document header.
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`
}

// Row is one itemized line.
type Row struct {
	Position    int    `json:"position"`
	ItemName    string `json:"item_name"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

// Total is one labelled amount of the totals band.
type Total struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

type Document struct {
	Number     string  `json:"invoice_number"`
	Status     string  `json:"status"`
	IssueDate  string  `json:"issue_date"`
	DueDate    string  `json:"due_date"`
	Company    Party   `json:"company"`
	Customer   Party   `json:"customer"`
	Rows       []Row   `json:"rows"`
	Totals     []Total `json:"totals"`
	Notes      string  `json:"notes,omitempty"`
	VoidReason string  `json:"void_reason,omitempty"`
}

// Composer reads an invoice with its customer, item names and payments and
// formats them with the configured currency symbol.
type Composer struct {
	store    *database.Store
	settings *settings.Service
	invoices *billing.Engine
	log      *logrus.Entry
}

func New(store *database.Store, cfg *settings.Service, invoices *billing.Engine, logg *logrus.Logger) *Composer {
	return &Composer{store: store, settings: cfg, invoices: invoices, log: logg.WithField("module", "document")}
}

func (c *Composer) Compose(ctx context.Context, invoiceID uint) (*Document, error) {
	const op = "document.Compose"
	// 1. Invoice with lines, status derived for today and the amount paid
	inv, err := c.invoices.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	snap, err := c.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	// 2. Customer and item names
	db := c.store.DB().WithContext(ctx)
	var customer models.Customer
	if err := db.First(&customer, inv.CustomerID).Error; err != nil {
		return nil, database.Lookup(err, op, "customer", inv.CustomerID)
	}
	ids := make([]uint, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		ids = append(ids, l.ItemID)
	}
	var items []models.Item
	if len(ids) > 0 {
		if err := db.Select("id", "name").Where("id IN ?", ids).Find(&items).Error; err != nil {
			return nil, database.Lookup(err, op, "item", ids)
		}
	}
	names := make(map[uint]string, len(items))
	for _, it := range items {
		names[it.ID] = it.Name
	}

	// 3. Format
	sym := snap.CurrencySymbol
	doc := &Document{
		Number:    inv.Number,
		Status:    string(inv.Status),
		IssueDate: civil(inv.IssueDate),
		DueDate:   civil(inv.DueDate),
		Company: Party{
			Name:    snap.Company.Name,
			Address: snap.Company.Address,
			Phone:   snap.Company.Phone,
			Email:   snap.Company.Email,
		},
		Customer: Party{
			Name:    customer.Name,
			Address: customer.Address,
			Phone:   customer.Phone,
			Email:   customer.Email,
			TaxID:   customer.TaxID,
		},
		Notes:      inv.Notes,
		VoidReason: inv.VoidReason,
	}
	for _, l := range inv.Lines {
		doc.Rows = append(doc.Rows, Row{
			Position:    l.Position + 1,
			ItemName:    names[l.ItemID],
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   money.Format(sym, l.UnitPrice),
			LineTotal:   money.Format(sym, l.LineTotal),
		})
	}
	doc.Totals = []Total{
		{Label: "Subtotal", Amount: money.Format(sym, inv.Subtotal)},
		{Label: "Tax (" + money.FormatRate(inv.TaxRate) + ")", Amount: money.Format(sym, inv.TaxAmount)},
		{Label: "Discount (" + money.FormatRate(inv.DiscountRate) + ")", Amount: money.Format(sym, inv.DiscountAmount.Neg())},
		{Label: "Total", Amount: money.Format(sym, inv.Total)},
		{Label: "Amount Paid", Amount: money.Format(sym, inv.AmountPaid)},
		{Label: "Balance Due", Amount: money.Format(sym, inv.BalanceDue)},
	}
	return doc, nil
}

func civil(t time.Time) string {
	return t.UTC().Format(models.DateLayout)
}
