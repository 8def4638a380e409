package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-pos-billing/internal/billing"
	"go-pos-billing/internal/document"
	"go-pos-billing/internal/middleware"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/payments"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// parseDay reads an optional YYYY-MM-DD value.
func parseDay(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return models.ParseDate(strings.TrimSpace(s))
}

// CheckoutPayment is an optional payment taken at the till.
type CheckoutPayment struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
}

// CheckoutRequest defines what the Frontend sends us
type CheckoutRequest struct {
	CustomerID   uint                `json:"customer_id" binding:"required"`
	Lines        []billing.LineInput `json:"lines"`
	TaxRate      *decimal.Decimal    `json:"tax_rate"`
	DiscountRate *decimal.Decimal    `json:"discount_rate"`
	IssueDate    string              `json:"issue_date"`
	DueDate      string              `json:"due_date"`
	Notes        string              `json:"notes"`
	Payment      *CheckoutPayment    `json:"payment"`
}

// ProcessSale commits an invoice in one call and optionally records the
// payment taken with it. A rejected payment leaves the invoice committed.
func (h *Handler) ProcessSale(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	issue, err := parseDay(req.IssueDate)
	if err != nil {
		badRequest(c, "issue_date must be YYYY-MM-DD")
		return
	}
	due, err := parseDay(req.DueDate)
	if err != nil {
		badRequest(c, "due_date must be YYYY-MM-DD")
		return
	}
	actor := middleware.Actor(c)

	// 1. Commit: stock, ledger, number and invoice in one unit of work
	inv, err := h.Billing.Create(c.Request.Context(), billing.CreateRequest{
		CustomerID:   req.CustomerID,
		Lines:        req.Lines,
		TaxRate:      req.TaxRate,
		DiscountRate: req.DiscountRate,
		IssueDate:    issue,
		DueDate:      due,
		Notes:        req.Notes,
	}, actor)
	if err != nil {
		h.fail(c, "ProcessSale", err)
		return
	}

	resp := gin.H{
		"message":        "Sale successful!",
		"invoice_id":     inv.ID,
		"invoice_number": inv.Number,
		"total":          inv.Total,
		"status":         inv.Status,
	}

	// 2. Payment, if one was taken
	if req.Payment != nil {
		res, err := h.Payments.Record(c.Request.Context(), payments.Input{
			InvoiceID: inv.ID,
			Amount:    req.Payment.Amount,
			Method:    req.Payment.Method,
			Reference: req.Payment.Reference,
		}, actor)
		if err != nil {
			resp["payment_error"] = err.Error()
		} else {
			resp["status"] = res.Status
			resp["balance"] = res.Balance
		}
	}

	c.JSON(http.StatusCreated, resp)
}

// --- Drafts ---

type OpenDraftRequest struct {
	CustomerID uint `json:"customer_id" binding:"required"`
}

type draftResponse struct {
	billing.Draft
	Totals billing.Totals `json:"totals"`
}

func (h *Handler) respondDraft(c *gin.Context, id string, status int) {
	d, err := h.Billing.Draft(id)
	if err != nil {
		h.fail(c, "respondDraft", err)
		return
	}
	c.JSON(status, draftResponse{Draft: d, Totals: d.Totals()})
}

func (h *Handler) OpenDraft(c *gin.Context) {
	var req OpenDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "customer_id is required")
		return
	}
	id, err := h.Billing.OpenDraft(c.Request.Context(), req.CustomerID)
	if err != nil {
		h.fail(c, "OpenDraft", err)
		return
	}
	h.respondDraft(c, id, http.StatusCreated)
}

func (h *Handler) GetDraft(c *gin.Context) {
	h.respondDraft(c, c.Param("id"), http.StatusOK)
}

func (h *Handler) AddDraftLine(c *gin.Context) {
	var in billing.LineInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	if _, err := h.Billing.AddLine(c.Request.Context(), c.Param("id"), in); err != nil {
		h.fail(c, "AddDraftLine", err)
		return
	}
	h.respondDraft(c, c.Param("id"), http.StatusOK)
}

func lineIndex(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil || i < 0 {
		badRequest(c, "Invalid line index")
		return 0, false
	}
	return i, true
}

func (h *Handler) UpdateDraftLine(c *gin.Context) {
	i, ok := lineIndex(c)
	if !ok {
		return
	}
	var in billing.LineInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	if err := h.Billing.UpdateLine(c.Request.Context(), c.Param("id"), i, in); err != nil {
		h.fail(c, "UpdateDraftLine", err)
		return
	}
	h.respondDraft(c, c.Param("id"), http.StatusOK)
}

func (h *Handler) RemoveDraftLine(c *gin.Context) {
	i, ok := lineIndex(c)
	if !ok {
		return
	}
	if err := h.Billing.RemoveLine(c.Param("id"), i); err != nil {
		h.fail(c, "RemoveDraftLine", err)
		return
	}
	h.respondDraft(c, c.Param("id"), http.StatusOK)
}

type DraftTermsRequest struct {
	TaxRate      *decimal.Decimal `json:"tax_rate"`
	DiscountRate *decimal.Decimal `json:"discount_rate"`
	IssueDate    *string          `json:"issue_date"`
	DueDate      *string          `json:"due_date"`
	Notes        *string          `json:"notes"`
}

// UpdateDraftTerms changes whichever of rates, dates and notes were sent.
func (h *Handler) UpdateDraftTerms(c *gin.Context) {
	id := c.Param("id")
	var req DraftTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	d, err := h.Billing.Draft(id)
	if err != nil {
		h.fail(c, "UpdateDraftTerms", err)
		return
	}

	// 1. Rates
	if req.TaxRate != nil || req.DiscountRate != nil {
		tax, discount := d.TaxRate, d.DiscountRate
		if req.TaxRate != nil {
			tax = *req.TaxRate
		}
		if req.DiscountRate != nil {
			discount = *req.DiscountRate
		}
		if err := h.Billing.SetRates(id, tax, discount); err != nil {
			h.fail(c, "UpdateDraftTerms", err)
			return
		}
	}

	// 2. Dates
	if req.IssueDate != nil || req.DueDate != nil {
		issue, due := d.IssueDate, d.DueDate
		if req.IssueDate != nil {
			if issue, err = parseDay(*req.IssueDate); err != nil {
				badRequest(c, "issue_date must be YYYY-MM-DD")
				return
			}
		}
		if req.DueDate != nil {
			if due, err = parseDay(*req.DueDate); err != nil {
				badRequest(c, "due_date must be YYYY-MM-DD")
				return
			}
		}
		if err := h.Billing.SetDates(c.Request.Context(), id, issue, due); err != nil {
			h.fail(c, "UpdateDraftTerms", err)
			return
		}
	}

	// 3. Notes
	if req.Notes != nil {
		if err := h.Billing.SetNotes(id, *req.Notes); err != nil {
			h.fail(c, "UpdateDraftTerms", err)
			return
		}
	}
	h.respondDraft(c, id, http.StatusOK)
}

func (h *Handler) CommitDraft(c *gin.Context) {
	inv, err := h.Billing.Commit(c.Request.Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		h.fail(c, "CommitDraft", err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (h *Handler) DiscardDraft(c *gin.Context) {
	h.Billing.Discard(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "Draft discarded"})
}

// --- Invoices ---

func (h *Handler) GetInvoices(c *gin.Context) {
	customerID, ok := queryID(c, "customer_id")
	if !ok {
		return
	}
	from, err := parseDay(c.Query("from"))
	if err != nil {
		badRequest(c, "from must be YYYY-MM-DD")
		return
	}
	to, err := parseDay(c.Query("to"))
	if err != nil {
		badRequest(c, "to must be YYYY-MM-DD")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	list, err := h.Billing.List(c.Request.Context(), billing.ListFilter{
		CustomerID: customerID,
		Status:     models.InvoiceStatus(c.Query("status")),
		From:       from,
		To:         to,
		Limit:      limit,
	})
	if err != nil {
		h.fail(c, "GetInvoices", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetInvoice(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	inv, err := h.Billing.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "GetInvoice", err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) GetInvoiceByNumber(c *gin.Context) {
	inv, err := h.Billing.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.fail(c, "GetInvoiceByNumber", err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

type VoidRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) VoidInvoice(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req VoidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "reason is required")
		return
	}
	inv, err := h.Billing.Void(c.Request.Context(), id, middleware.Actor(c), req.Reason)
	if err != nil {
		h.fail(c, "VoidInvoice", err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// GetDocument returns the composed invoice document; ?format=text gives the
// plain receipt.
func (h *Handler) GetDocument(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.Documents.Compose(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "GetDocument", err)
		return
	}
	if c.Query("format") != "text" {
		c.JSON(http.StatusOK, doc)
		return
	}
	var b strings.Builder
	if err := document.PlainText(&b, doc); err != nil {
		h.fail(c, "GetDocument", err)
		return
	}
	c.String(http.StatusOK, b.String())
}

func (h *Handler) MaterializeOverdue(c *gin.Context) {
	n, err := h.Billing.MaterializeOverdue(c.Request.Context())
	if err != nil {
		h.fail(c, "MaterializeOverdue", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
