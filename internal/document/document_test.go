package document_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"go-pos-billing/internal/billing"
	"go-pos-billing/internal/catalog"
	"go-pos-billing/internal/config"
	"go-pos-billing/internal/database/databasetest"
	"go-pos-billing/internal/document"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/parties"
	"go-pos-billing/internal/payments"
	"go-pos-billing/internal/settings"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	settings *settings.Service
	engine   *billing.Engine
	payments *payments.Ledger
	composer *document.Composer
	invoice  *models.Invoice
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	clock := databasetest.NewClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	store := databasetest.Open(t, clock.Now)
	logg := config.DiscardLogger()
	cfg := settings.New(store, logg)
	require.NoError(t, cfg.Set(ctx, models.SettingCompanyName, "Nine Stores", "admin"))
	require.NoError(t, cfg.Set(ctx, models.SettingCompanyPhone, "+234 800 000 0000", "admin"))

	cat := catalog.New(store, cfg, logg)
	engine := billing.New(store, cfg, logg)
	cust, err := parties.New(store, logg).Create(ctx, parties.CustomerInput{
		Name: "Chidi Okeke", Email: "chidi@example.com", TaxID: "TIN-001",
	}, "admin")
	require.NoError(t, err)
	a, err := cat.Create(ctx, catalog.ItemInput{
		Name: "Rice 50kg", Description: "Long grain", Category: "Grocery", Quantity: 10, UnitPrice: decimal.RequireFromString("1250.50"),
	}, "admin")
	require.NoError(t, err)
	b, err := cat.Create(ctx, catalog.ItemInput{
		Name: "Palm Oil", Category: "Grocery", Quantity: 10, UnitPrice: decimal.RequireFromString("10.00"),
	}, "admin")
	require.NoError(t, err)

	discount := decimal.RequireFromString("0.05")
	inv, err := engine.Create(ctx, billing.CreateRequest{
		CustomerID:   cust.ID,
		Lines:        []billing.LineInput{{ItemID: a.ID, Quantity: 2}, {ItemID: b.ID, Quantity: 3}},
		DiscountRate: &discount,
		Notes:        "Thank you for your patronage",
	}, "cashier1")
	require.NoError(t, err)

	return &fixture{
		settings: cfg,
		engine:   engine,
		payments: payments.New(store, cfg, logg),
		composer: document.New(store, cfg, engine, logg),
		invoice:  inv,
	}
}

func amounts(doc *document.Document) map[string]string {
	out := map[string]string{}
	for _, t := range doc.Totals {
		out[t.Label] = t.Amount
	}
	return out
}

func TestComposeFormatsEveryAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.payments.Record(ctx, payments.Input{
		InvoiceID: f.invoice.ID, Amount: decimal.RequireFromString("1000"), Method: "Cash",
	}, "cashier1")
	require.NoError(t, err)

	doc, err := f.composer.Compose(ctx, f.invoice.ID)
	require.NoError(t, err)

	assert.Equal(t, f.invoice.Number, doc.Number)
	assert.Equal(t, "Partial", doc.Status)
	assert.Equal(t, "2026-03-10", doc.IssueDate)
	assert.Equal(t, "2026-04-09", doc.DueDate)
	assert.Equal(t, "Nine Stores", doc.Company.Name)
	assert.Equal(t, "Chidi Okeke", doc.Customer.Name)
	assert.Equal(t, "TIN-001", doc.Customer.TaxID)

	require.Len(t, doc.Rows, 2)
	assert.Equal(t, document.Row{
		Position: 1, ItemName: "Rice 50kg", Description: "Long grain", Quantity: 2,
		UnitPrice: "₦1,250.50", LineTotal: "₦2,501.00",
	}, doc.Rows[0])
	assert.Equal(t, "₦30.00", doc.Rows[1].LineTotal)

	// subtotal 2531.00, tax 253.10, discount 126.55
	got := amounts(doc)
	assert.Equal(t, "₦2,531.00", got["Subtotal"])
	assert.Equal(t, "₦253.10", got["Tax (10%)"])
	assert.Equal(t, "-₦126.55", got["Discount (5%)"])
	assert.Equal(t, "₦2,657.55", got["Total"])
	assert.Equal(t, "₦1,000.00", got["Amount Paid"])
	assert.Equal(t, "₦1,657.55", got["Balance Due"])
	assert.Equal(t, "Thank you for your patronage", doc.Notes)
}

func TestComposeUsesConfiguredSymbol(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.settings.Set(ctx, models.SettingCurrencySymbol, "$", "admin"))

	doc, err := f.composer.Compose(ctx, f.invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2,657.55", amounts(doc)["Total"])
}

func TestComposeMissingInvoice(t *testing.T) {
	f := newFixture(t)
	_, err := f.composer.Compose(context.Background(), 404)
	assert.Error(t, err)
}

func TestPlainTextPrintsComposedStrings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.Void(ctx, f.invoice.ID, "admin", "duplicate sale")
	require.NoError(t, err)

	doc, err := f.composer.Compose(ctx, f.invoice.ID)
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, document.PlainText(&b, doc))
	out := b.String()

	assert.Contains(t, out, "Nine Stores")
	assert.Contains(t, out, "Invoice: "+f.invoice.Number)
	assert.Contains(t, out, "Status:  Void")
	assert.Contains(t, out, "1. Rice 50kg")
	assert.Contains(t, out, "Long grain")
	assert.Contains(t, out, "2 x ₦1,250.50")
	for _, total := range doc.Totals {
		assert.Contains(t, out, total.Amount)
	}
	assert.Contains(t, out, "VOID: duplicate sale")
}
