package handlers

import (
	"net/http"
	"time"

	"go-pos-billing/internal/middleware"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/payments"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PaymentRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	Method           string          `json:"method" binding:"required"`
	Reference        string          `json:"reference"`
	Notes            string          `json:"notes"`
	PaidAt           *time.Time      `json:"paid_at"`
	AllowOverpayment bool            `json:"allow_overpayment"`
}

func (h *Handler) RecordPayment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	// Only admins may accept more than is owed.
	if req.AllowOverpayment && c.GetString(middleware.KeyRole) != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only an admin may accept an overpayment"})
		return
	}

	in := payments.Input{
		InvoiceID:        id,
		Amount:           req.Amount,
		Method:           req.Method,
		Reference:        req.Reference,
		Notes:            req.Notes,
		AllowOverpayment: req.AllowOverpayment,
	}
	if req.PaidAt != nil {
		in.PaidAt = *req.PaidAt
	}
	res, err := h.Payments.Record(c.Request.Context(), in, middleware.Actor(c))
	if err != nil {
		h.fail(c, "RecordPayment", err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetPayments(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, err := h.Payments.List(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "GetPayments", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) DeletePayment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	status, err := h.Payments.Delete(c.Request.Context(), id, middleware.Actor(c))
	if err != nil {
		h.fail(c, "DeletePayment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment deleted", "status": status})
}
