package ai_test

import (
	"context"
	"testing"
	"time"

	"go-pos-billing/internal/ai"
	"go-pos-billing/internal/billing"
	"go-pos-billing/internal/catalog"
	"go-pos-billing/internal/config"
	"go-pos-billing/internal/database/databasetest"
	"go-pos-billing/internal/parties"
	"go-pos-billing/internal/reports"
	"go-pos-billing/internal/settings"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTools(t *testing.T) (*ai.Tools, *catalog.Service, *billing.Engine, uint) {
	t.Helper()
	clock := databasetest.NewClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	store := databasetest.Open(t, clock.Now)
	logg := config.DiscardLogger()
	cfg := settings.New(store, logg)
	cat := catalog.New(store, cfg, logg)
	c, err := parties.New(store, logg).Create(context.Background(), parties.CustomerInput{Name: "Walk-in"}, "admin")
	require.NoError(t, err)
	return &ai.Tools{Catalog: cat, Reports: reports.New(store, cfg, logg)}, cat, billing.New(store, cfg, logg), c.ID
}

func TestDeclarationsCoverEveryTool(t *testing.T) {
	tools, _, _, _ := newTools(t)
	var names []string
	for _, d := range tools.Declarations() {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{"check_inventory", "low_stock", "get_sales_report", "outstanding_invoices"}, names)
}

func TestExecuteTools(t *testing.T) {
	tools, cat, engine, customer := newTools(t)
	ctx := context.Background()

	pen, err := cat.Create(ctx, catalog.ItemInput{Name: "Blue Pen", Category: "Stationery", Quantity: 3, UnitPrice: decimal.RequireFromString("1.50")}, "admin")
	require.NoError(t, err)
	_, err = cat.Create(ctx, catalog.ItemInput{Name: "Desk", Category: "Furniture", Quantity: 40, UnitPrice: decimal.RequireFromString("90")}, "admin")
	require.NoError(t, err)

	out := tools.Execute(ctx, "check_inventory", map[string]any{"query": "pen"})
	require.NotContains(t, out, "error")
	assert.Len(t, out["inventory"], 1)

	out = tools.Execute(ctx, "low_stock", nil)
	items := out["items"].([]map[string]any)
	require.Len(t, items, 1)
	assert.Equal(t, pen.ID, items[0]["id"])
	assert.Equal(t, "critical", items[0]["level"])

	_, err = engine.Create(ctx, billing.CreateRequest{
		CustomerID: customer,
		Lines:      []billing.LineInput{{ItemID: pen.ID, Quantity: 2}},
	}, "admin")
	require.NoError(t, err)

	out = tools.Execute(ctx, "get_sales_report", map[string]any{"start_date": "2026-03-01", "end_date": "2026-03-31"})
	require.NotContains(t, out, "error")
	assert.Equal(t, 1, out["invoices"])
	assert.Equal(t, "3.30", out["revenue"])
	assert.Equal(t, "3.30", out["outstanding"])

	out = tools.Execute(ctx, "outstanding_invoices", nil)
	assert.Equal(t, "3.30", out["owed"])
	rows := out["invoices"].([]map[string]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "current", rows[0]["class"])
}

func TestExecuteReportsErrorsToModel(t *testing.T) {
	tools, _, _, _ := newTools(t)
	ctx := context.Background()

	out := tools.Execute(ctx, "get_sales_report", map[string]any{"start_date": "March", "end_date": "2026-03-31"})
	assert.Contains(t, out["error"], "YYYY-MM-DD")

	out = tools.Execute(ctx, "get_sales_report", map[string]any{"start_date": "2026-03-31", "end_date": "2026-03-01"})
	assert.Contains(t, out, "error")

	out = tools.Execute(ctx, "delete_everything", nil)
	assert.Contains(t, out["error"], "unknown tool")
}
