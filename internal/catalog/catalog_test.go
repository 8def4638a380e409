package catalog_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/catalog"
	"go-pos-billing/internal/config"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/database/databasetest"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/settings"
	"go-pos-billing/internal/stockledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *database.Store
	clock   *databasetest.Clock
	catalog *catalog.Service
	ledger  *stockledger.Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := databasetest.NewClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := databasetest.Open(t, clock.Now)
	logg := config.DiscardLogger()
	return &fixture{
		store:   store,
		clock:   clock,
		catalog: catalog.New(store, settings.New(store, logg), logg),
		ledger:  stockledger.New(store, logg),
	}
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) item(t *testing.T, name, category string, qty int) *models.Item {
	t.Helper()
	it, err := f.catalog.Create(context.Background(), catalog.ItemInput{
		Name: name, Category: category, Quantity: qty, UnitPrice: price("100.00"), Supplier: "Dangote",
	}, "admin")
	require.NoError(t, err)
	return it
}

func (f *fixture) assertLedgerAgrees(t *testing.T) {
	t.Helper()
	found, err := f.ledger.Verify(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestCreateWritesOpeningStock(t *testing.T) {
	f := newFixture(t)
	it := f.item(t, "Sugar", "Grocery", 12)

	entries, err := database.Collect(f.ledger.Feed(context.Background(), stockledger.Filter{ItemID: it.ID}))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.StockIn, entries[0].Kind)
	assert.Equal(t, 12, entries[0].Quantity)
	assert.Equal(t, catalog.OpeningStockReason, entries[0].Reason)
	f.assertLedgerAgrees(t)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.Create(ctx, catalog.ItemInput{Name: "  ", Category: "Grocery", UnitPrice: price("1")}, "admin")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.catalog.Create(ctx, catalog.ItemInput{Name: "Salt", Category: "Grocery", UnitPrice: price("-1")}, "admin")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.catalog.Create(ctx, catalog.ItemInput{Name: "Salt", Category: "Grocery", Quantity: -2, UnitPrice: price("1")}, "admin")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateDoesNotTouchQuantity(t *testing.T) {
	f := newFixture(t)
	it := f.item(t, "Sugar", "Grocery", 12)

	updated, err := f.catalog.Update(context.Background(), it.ID, catalog.ItemInput{
		Name: "Sugar 1kg", Category: "Grocery", Quantity: 500, UnitPrice: price("120.50"),
	}, "clerk")
	require.NoError(t, err)
	assert.Equal(t, 12, updated.Quantity)
	assert.Equal(t, "Sugar 1kg", updated.Name)
	assert.Equal(t, "clerk", updated.UpdatedBy)
	assert.True(t, updated.UnitPrice.Equal(price("120.5")))

	_, err = f.catalog.Update(context.Background(), 999, catalog.ItemInput{Name: "x", Category: "y"}, "clerk")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAdjustStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.item(t, "Sugar", "Grocery", 5)

	got, err := f.catalog.AdjustStock(ctx, it.ID, -3, "damaged", "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)

	_, err = f.catalog.AdjustStock(ctx, it.ID, -3, "damaged", "admin")
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)
	var se *apperr.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Shortages[0].Available)

	_, err = f.catalog.AdjustStock(ctx, it.ID, 4, "", "admin")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.catalog.AdjustStock(ctx, it.ID, 0, "noop", "admin")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err = f.catalog.AdjustStock(ctx, it.ID, 4, "recount", "admin")
	require.NoError(t, err)
	assert.Equal(t, 6, got.Quantity)
	f.assertLedgerAgrees(t)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.item(t, "Golden Penny Spaghetti", "Grocery", 3)
	f.item(t, "Peak Milk", "Dairy", 3)
	_, err := f.catalog.Create(ctx, catalog.ItemInput{
		Name: "Hollandia", Description: "evaporated MILK", Category: "Dairy", UnitPrice: price("1"),
	}, "admin")
	require.NoError(t, err)

	got, err := f.catalog.Search(ctx, "milk", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.catalog.Search(ctx, "DANGOTE", "Grocery")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Golden Penny Spaghetti", got[0].Name)

	got, err = f.catalog.Search(ctx, "100%", "")
	require.NoError(t, err)
	assert.Empty(t, got)

	suppliers, err := f.catalog.Suppliers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dangote"}, suppliers)
}

func TestDeleteInUseAndPurgesLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	used := f.item(t, "Sugar", "Grocery", 5)
	free := f.item(t, "Salt", "Grocery", 5)

	inv := models.Invoice{
		Number: "INV-1001", CustomerID: 1, Status: models.StatusUnpaid,
		Subtotal: price("100"), TaxRate: decimal.Zero, TaxAmount: decimal.Zero,
		DiscountRate: decimal.Zero, DiscountAmount: decimal.Zero, Total: price("100"),
		Lines: []models.InvoiceLine{{ItemID: used.ID, Quantity: 1, UnitPrice: price("100"), LineTotal: price("100")}},
	}
	require.NoError(t, f.store.DB().Create(&inv).Error)

	err := f.catalog.Delete(ctx, used.ID, "admin")
	assert.ErrorIs(t, err, apperr.ErrInUse)

	require.NoError(t, f.catalog.Delete(ctx, free.ID, "admin"))
	_, err = f.catalog.Get(ctx, free.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var left int64
	require.NoError(t, f.store.DB().Model(&models.StockEntry{}).Where("item_id = ?", free.ID).Count(&left).Error)
	assert.Zero(t, left)

	assert.ErrorIs(t, f.catalog.Delete(ctx, free.ID, "admin"), apperr.ErrNotFound)
}

func TestClassifyAndLowStock(t *testing.T) {
	th := catalog.Thresholds{Low: 10, Critical: 5}
	assert.Equal(t, catalog.LevelCritical, catalog.Classify(4, th))
	assert.Equal(t, catalog.LevelLow, catalog.Classify(5, th))
	assert.Equal(t, catalog.LevelLow, catalog.Classify(9, th))
	assert.Equal(t, catalog.LevelNormal, catalog.Classify(10, th))

	f := newFixture(t)
	f.item(t, "A", "X", 2)
	f.item(t, "B", "X", 7)
	f.item(t, "C", "X", 40)

	low, err := f.catalog.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "A", low[0].Name)
	assert.Equal(t, catalog.LevelCritical, low[0].Level)
	assert.Equal(t, catalog.LevelLow, low[1].Level)
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newFixture(t)
	ctx := context.Background()
	src.item(t, "Sugar", "Grocery", 12)
	_, err := src.catalog.Create(ctx, catalog.ItemInput{
		Name: "Milk, full cream", Description: `"Peak" 400g`, Category: "Dairy",
		Quantity: 0, UnitPrice: price("1250.75"),
	}, "admin")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.catalog.Export(ctx, &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "id,name,description,category,quantity,unit_price,supplier,last_updated\n"))

	dst := newFixture(t)
	dst.clock.Advance(72 * time.Hour)
	res, err := dst.catalog.Import(ctx, bytes.NewReader(buf.Bytes()), "importer")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	want, err := src.catalog.List(ctx)
	require.NoError(t, err)
	got, err := dst.catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].Description, got[i].Description)
		assert.Equal(t, want[i].Category, got[i].Category)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.True(t, want[i].UnitPrice.Equal(got[i].UnitPrice))
		assert.Equal(t, want[i].Supplier, got[i].Supplier)
		assert.True(t, want[i].LastUpdated.Equal(got[i].LastUpdated))
	}
	dst.assertLedgerAgrees(t)

	// A second import of the same file changes nothing.
	res, err = dst.catalog.Import(ctx, bytes.NewReader(buf.Bytes()), "importer")
	require.NoError(t, err)
	assert.Equal(t, catalog.ImportResult{Unchanged: 2}, res)
}

func TestImportUpsertsThroughLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.item(t, "Sugar", "Grocery", 12)

	csv := "id,name,description,category,quantity,unit_price,supplier,last_updated\n" +
		",Sugar,,Grocery,8,110.00,Dangote,\n" +
		",Sugar,,Baking,3,90.00,,\n"
	res, err := f.catalog.Import(ctx, strings.NewReader(csv), "importer")
	require.NoError(t, err)
	assert.Equal(t, catalog.ImportResult{Created: 1, Updated: 1}, res)

	got, err := f.catalog.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Quantity)
	assert.True(t, got.UnitPrice.Equal(price("110")))
	f.assertLedgerAgrees(t)
}

func TestImportAcceptsSpreadsheetPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	csv := "id,name,description,category,quantity,unit_price,supplier,last_updated\n" +
		",Rice,,Grocery,2,\"₦1,250.00\",,\n" +
		",Beans,,Grocery,1,\" 90 \",,\n"
	res, err := f.catalog.Import(ctx, strings.NewReader(csv), "importer")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	items, err := f.catalog.Search(ctx, "Rice", "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].UnitPrice.Equal(price("1250")))

	bad := "id,name,description,category,quantity,unit_price,supplier,last_updated\n" +
		",Salt,,Grocery,1,free,,\n"
	_, err = f.catalog.Import(ctx, strings.NewReader(bad), "importer")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestImportRejectsBadFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.Import(ctx, strings.NewReader("name,price\nx,1\n"), "importer")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	bad := "id,name,description,category,quantity,unit_price,supplier,last_updated\n" +
		",Sugar,,Grocery,8,110.00,,\n" +
		",Salt,,Grocery,many,1.00,,\n"
	_, err = f.catalog.Import(ctx, strings.NewReader(bad), "importer")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	items, err := f.catalog.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}
