package handlers

import (
	"net/http"

	"go-pos-billing/internal/database"
	"go-pos-billing/internal/reports"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// period reads ?from=&to= (YYYY-MM-DD). A missing end is today; a missing
// start is the first day of the end's month.
func (h *Handler) period(c *gin.Context) (reports.Period, bool) {
	from, err := parseDay(c.Query("from"))
	if err != nil {
		badRequest(c, "from must be YYYY-MM-DD")
		return reports.Period{}, false
	}
	to, err := parseDay(c.Query("to"))
	if err != nil {
		badRequest(c, "to must be YYYY-MM-DD")
		return reports.Period{}, false
	}
	if to.IsZero() {
		to = h.Reports.Today()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, 1-to.Day())
	}
	p, err := reports.NewPeriod(from, to)
	if err != nil {
		h.fail(c, "period", err)
		return reports.Period{}, false
	}
	return p, true
}

// respond writes v as JSON, or the tables as a workbook when ?format=xlsx.
func (h *Handler) respond(c *gin.Context, name string, v any, tables ...reports.Table) {
	if c.Query("format") != "xlsx" {
		c.JSON(http.StatusOK, v)
		return
	}
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", "attachment; filename="+name+".xlsx")
	c.Status(http.StatusOK)
	if err := reports.WriteXLSX(c.Writer, tables...); err != nil {
		h.Log.WithField("module", "handlers").WithError(err).Error("write workbook")
	}
}

// --- GET: /api/reports/sales ---
func (h *Handler) GetSalesReport(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	res, err := h.Reports.Sales(c.Request.Context(), p)
	if err != nil {
		h.fail(c, "GetSalesReport", err)
		return
	}
	h.respond(c, "sales", res, res.Table())
}

func (h *Handler) GetCustomerSalesReport(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	res, err := h.Reports.CustomerSales(c.Request.Context(), p)
	if err != nil {
		h.fail(c, "GetCustomerSalesReport", err)
		return
	}
	h.respond(c, "customer-sales", res, res.Table())
}

func (h *Handler) GetTaxReport(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	res, err := h.Reports.Tax(c.Request.Context(), p)
	if err != nil {
		h.fail(c, "GetTaxReport", err)
		return
	}
	h.respond(c, "tax", res, res.Table())
}

// --- GET: /api/reports/collection ---
// Payments in the window plus the per-method breakdown.
func (h *Handler) GetCollectionReport(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	summary, err := h.Reports.Collection(ctx, p)
	if err != nil {
		h.fail(c, "GetCollectionReport", err)
		return
	}
	if c.Query("format") == "xlsx" {
		h.respond(c, "collection", nil, summary.Table(), h.Reports.PaymentsTable(ctx, p))
		return
	}
	rows, err := database.Collect(h.Reports.Payments(ctx, p))
	if err != nil {
		h.fail(c, "GetCollectionReport", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "payments": rows})
}

func (h *Handler) GetOutstandingReport(c *gin.Context) {
	ctx := c.Request.Context()
	if c.Query("format") == "xlsx" {
		h.respond(c, "outstanding", nil, h.Reports.OutstandingTable(ctx))
		return
	}
	summary, err := h.Reports.OutstandingSummary(ctx)
	if err != nil {
		h.fail(c, "GetOutstandingReport", err)
		return
	}
	rows, err := database.Collect(h.Reports.Outstanding(ctx))
	if err != nil {
		h.fail(c, "GetOutstandingReport", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "invoices": rows})
}

// --- GET: /api/reports/valuation ---
func (h *Handler) GetStockValuation(c *gin.Context) {
	ctx := c.Request.Context()
	if c.Query("format") == "xlsx" {
		h.respond(c, "valuation", nil, h.Reports.ValuationTable(ctx))
		return
	}
	totals, err := h.Reports.ValuationTotals(ctx)
	if err != nil {
		h.fail(c, "GetStockValuation", err)
		return
	}
	rows, err := database.Collect(h.Reports.Valuation(ctx))
	if err != nil {
		h.fail(c, "GetStockValuation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"totals": totals, "items": rows})
}

func (h *Handler) GetItemMovement(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if c.Query("format") == "xlsx" {
		h.respond(c, "movement", nil, h.Reports.MovementTable(ctx, p))
		return
	}
	rows, err := database.Collect(h.Reports.Movement(ctx, p))
	if err != nil {
		h.fail(c, "GetItemMovement", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": p, "items": rows})
}
