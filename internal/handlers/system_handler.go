package handlers

import (
	"net/http"

	"go-pos-billing/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "online"})
}

// GetSettings returns the typed snapshot, the raw rows with their audit
// columns and the number the next invoice will try first.
func (h *Handler) GetSettings(c *gin.Context) {
	snap, err := h.Settings.Get(c.Request.Context())
	if err != nil {
		h.fail(c, "GetSettings", err)
		return
	}
	rows, err := h.Settings.All(c.Request.Context())
	if err != nil {
		h.fail(c, "GetSettings", err)
		return
	}
	next, err := h.Settings.NextInvoiceNumber(c.Request.Context())
	if err != nil {
		h.fail(c, "GetSettings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": snap, "rows": rows, "next_invoice_number": next})
}

type SettingRequest struct {
	Value string `json:"value"`
}

func (h *Handler) UpdateSetting(c *gin.Context) {
	var req SettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	if err := h.Settings.Set(c.Request.Context(), c.Param("key"), req.Value, middleware.Actor(c)); err != nil {
		h.fail(c, "UpdateSetting", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Setting updated", "key": c.Param("key")})
}

// VerifyStock compares cached quantities with the ledger.
func (h *Handler) VerifyStock(c *gin.Context) {
	found, err := h.Ledger.Verify(c.Request.Context())
	if len(found) > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "stock ledger disagrees with item quantities", "discrepancies": found})
		return
	}
	if err != nil {
		h.fail(c, "VerifyStock", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "consistent"})
}

// RebuildStock replays the ledger onto the cached quantities.
func (h *Handler) RebuildStock(c *gin.Context) {
	fixed, err := h.Ledger.Rebuild(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		h.fail(c, "RebuildStock", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"repaired": fixed})
}
