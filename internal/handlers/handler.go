// Package handlers exposes the engine over HTTP with gin.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go-pos-billing/internal/ai"
	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/auth"
	"go-pos-billing/internal/billing"
	"go-pos-billing/internal/catalog"
	"go-pos-billing/internal/config"
	"go-pos-billing/internal/document"
	"go-pos-billing/internal/parties"
	"go-pos-billing/internal/payments"
	"go-pos-billing/internal/reports"
	"go-pos-billing/internal/settings"
	"go-pos-billing/internal/stockledger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler holds the services every route needs.
type Handler struct {
	Users     *auth.Users
	Settings  *settings.Service
	Catalog   *catalog.Service
	Parties   *parties.Service
	Ledger    *stockledger.Ledger
	Billing   *billing.Engine
	Payments  *payments.Ledger
	Reports   *reports.Service
	Documents *document.Composer
	Assistant *ai.Agent // nil when no API key is configured

	Log *logrus.Logger
}

// statusFor maps an engine error kind onto an HTTP status.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInUse, apperr.KindNumberingConflict, apperr.KindNumberingExhausted:
		return http.StatusConflict
	case apperr.KindInsufficientStock, apperr.KindOverpayment:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as {"error": ..., "kind": ...}. Insufficient stock carries
// the per-line shortages.
func (h *Handler) fail(c *gin.Context, funcName string, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	if kind := apperr.KindOf(err); kind != "" {
		body["kind"] = kind
	}
	var se *apperr.StockError
	if errors.As(err, &se) {
		body["shortages"] = se.Shortages
	}
	if status == http.StatusInternalServerError {
		config.LogError(h.Log, "handlers", funcName, c.FullPath(), nil, err)
		body["error"] = "internal error"
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// idParam reads a numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// queryID reads an optional numeric query parameter.
func queryID(c *gin.Context, name string) (uint, bool) {
	s := c.Query(name)
	if s == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}
