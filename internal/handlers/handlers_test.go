package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go-pos-billing/internal/auth"
	"go-pos-billing/internal/billing"
	"go-pos-billing/internal/catalog"
	"go-pos-billing/internal/config"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/database/databasetest"
	"go-pos-billing/internal/document"
	"go-pos-billing/internal/handlers"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/parties"
	"go-pos-billing/internal/payments"
	"go-pos-billing/internal/reports"
	"go-pos-billing/internal/settings"
	"go-pos-billing/internal/stockledger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type server struct {
	router   *gin.Engine
	h        *handlers.Handler
	customer uint
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := databasetest.NewClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	logg := config.DiscardLogger()
	store, err := database.Open(context.Background(), database.Options{
		Driver:        "sqlite",
		Path:          filepath.Join(t.TempDir(), "billing.db"),
		AdminUsername: "admin",
		AdminPassword: "admin",
		Now:           clock.Now,
	}, logg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := settings.New(store, logg)
	tokens := auth.NewTokens("test-secret", time.Hour, clock.Now)
	engine := billing.New(store, cfg, logg)
	h := &handlers.Handler{
		Users:     auth.NewUsers(store, tokens, logg),
		Settings:  cfg,
		Catalog:   catalog.New(store, cfg, logg),
		Parties:   parties.New(store, logg),
		Ledger:    stockledger.New(store, logg),
		Billing:   engine,
		Payments:  payments.New(store, cfg, logg),
		Reports:   reports.New(store, cfg, logg),
		Documents: document.New(store, cfg, engine, logg),
		Log:       logg,
	}
	r := gin.New()
	handlers.Routes(r, h, tokens, false)

	c, err := h.Parties.Create(context.Background(), parties.CustomerInput{Name: "Walk-in"}, "admin")
	require.NoError(t, err)
	return &server{router: r, h: h, customer: c.ID}
}

func (s *server) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) login(t *testing.T, username, password string) string {
	t.Helper()
	w := s.do(http.MethodPost, "/login", "", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (s *server) item(t *testing.T, name string, qty int, price string) *models.Item {
	t.Helper()
	it, err := s.h.Catalog.Create(context.Background(), catalog.ItemInput{
		Name: name, Category: "General", Quantity: qty, UnitPrice: decimal.RequireFromString(price),
	}, "admin")
	require.NoError(t, err)
	return it
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodPost, "/login", "", gin.H{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.NotEmpty(t, s.login(t, "admin", "admin"))
}

func TestCheckoutWithExactPayment(t *testing.T) {
	s := newServer(t)
	token := s.login(t, "admin", "admin")
	a := s.item(t, "Item A", 5, "100.00")

	w := s.do(http.MethodPost, "/api/checkout", token, gin.H{
		"customer_id": s.customer,
		"lines":       []gin.H{{"item_id": a.ID, "quantity": 2}},
		"payment":     gin.H{"amount": "220.00", "method": "Cash"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, "INV-1001", resp["invoice_number"])
	assert.Equal(t, string(models.StatusPaid), resp["status"])
	assert.True(t, decimal.RequireFromString(resp["total"].(string)).Equal(decimal.RequireFromString("220")))
	assert.NotContains(t, resp, "payment_error")

	w = s.do(http.MethodGet, fmt.Sprintf("/api/products/%d", a.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["quantity"])
}

func TestCheckoutInsufficientStock(t *testing.T) {
	s := newServer(t)
	token := s.login(t, "admin", "admin")
	b := s.item(t, "Item B", 1, "50.00")

	w := s.do(http.MethodPost, "/api/checkout", token, gin.H{
		"customer_id": s.customer,
		"lines":       []gin.H{{"item_id": b.ID, "quantity": 3}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, "insufficient-stock", resp["kind"])
	shortages := resp["shortages"].([]any)
	require.Len(t, shortages, 1)
	short := shortages[0].(map[string]any)
	assert.EqualValues(t, 0, short["line_index"])
	assert.EqualValues(t, 1, short["available"])

	w = s.do(http.MethodGet, "/api/invoices", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list)
}

func TestRoleGuards(t *testing.T) {
	s := newServer(t)
	_, err := s.h.Users.Register(context.Background(), "till1", "secret", "")
	require.NoError(t, err)
	cashier := s.login(t, "till1", "secret")

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/products", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/products", cashier, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/reports/sales", cashier, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/products", cashier, gin.H{"name": "x"}).Code)

	// registration is not routed unless enabled
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/register", "", gin.H{"username": "x", "password": "yyyy"}).Code)
}

func TestOverpaymentOverrideIsAdminOnly(t *testing.T) {
	s := newServer(t)
	_, err := s.h.Users.Register(context.Background(), "till1", "secret", models.RoleCashier)
	require.NoError(t, err)
	cashier := s.login(t, "till1", "secret")
	a := s.item(t, "Item A", 5, "100.00")

	w := s.do(http.MethodPost, "/api/checkout", cashier, gin.H{
		"customer_id": s.customer,
		"lines":       []gin.H{{"item_id": a.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["invoice_id"]

	path := fmt.Sprintf("/api/invoices/%v/payments", id)
	w = s.do(http.MethodPost, path, cashier, gin.H{"amount": "500", "method": "Cash"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "overpayment", decode(t, w)["kind"])

	w = s.do(http.MethodPost, path, cashier, gin.H{"amount": "500", "method": "Cash", "allow_overpayment": true})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSalesReportWorkbook(t *testing.T) {
	s := newServer(t)
	token := s.login(t, "admin", "admin")
	a := s.item(t, "Item A", 5, "100.00")
	w := s.do(http.MethodPost, "/api/checkout", token, gin.H{
		"customer_id": s.customer,
		"lines":       []gin.H{{"item_id": a.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/reports/sales?from=2026-03-01&to=2026-03-31&format=xlsx", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.NotEmpty(t, f.GetSheetList())

	w = s.do(http.MethodGet, "/api/reports/sales?from=2026-03-31&to=2026-03-01", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAskWithoutAssistant(t *testing.T) {
	s := newServer(t)
	token := s.login(t, "admin", "admin")

	w := s.do(http.MethodPost, "/api/ask", token, gin.H{"message": "how many pens?"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCatalogMetadataAndSettings(t *testing.T) {
	s := newServer(t)
	token := s.login(t, "admin", "admin")
	_, err := s.h.Catalog.Create(context.Background(), catalog.ItemInput{
		Name: "Peak Milk", Category: "Dairy", UnitPrice: decimal.RequireFromString("5"), Supplier: "FrieslandCampina",
	}, "admin")
	require.NoError(t, err)

	w := s.do(http.MethodGet, "/api/products/suppliers", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var suppliers []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &suppliers))
	assert.Equal(t, []string{"FrieslandCampina"}, suppliers)

	w = s.do(http.MethodGet, "/api/settings", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "INV-1001", decode(t, w)["next_invoice_number"])
}
