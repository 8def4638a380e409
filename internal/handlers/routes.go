package handlers

import (
	"go-pos-billing/internal/auth"
	"go-pos-billing/internal/middleware"
	"go-pos-billing/internal/models"

	"github.com/gin-gonic/gin"
)

// Routes mounts every endpoint on r.
func Routes(r *gin.Engine, h *Handler, tokens *auth.Tokens, allowRegistration bool) {
	r.GET("/health", h.Health)
	r.POST("/login", h.Login)

	// --- FEATURE FLAG: Registration ---
	if allowRegistration {
		r.POST("/register", h.Register)
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(tokens))
	{
		// STAFF & ADMIN
		api.GET("/products", h.GetProducts)
		api.GET("/products/categories", h.GetCategories)
		api.GET("/products/suppliers", h.GetSuppliers)
		api.GET("/products/low-stock", h.GetLowStock)
		api.GET("/products/:id", h.GetProduct)

		api.POST("/checkout", h.ProcessSale)
		api.GET("/invoices", h.GetInvoices)
		api.GET("/invoices/:id", h.GetInvoice)
		api.GET("/invoices/number/:number", h.GetInvoiceByNumber)
		api.GET("/invoices/:id/document", h.GetDocument)
		api.GET("/invoices/:id/payments", h.GetPayments)
		api.POST("/invoices/:id/payments", h.RecordPayment)

		// ADMIN ONLY
		admin := api.Group("/")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/ask", h.AskAI)

			admin.POST("/products", h.AddProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)
			admin.POST("/products/:id/adjust", h.AdjustStock)
			admin.GET("/products/export", h.ExportCatalog)
			admin.POST("/products/import", h.ImportCatalog)

			admin.GET("/customers", h.GetCustomers)
			admin.GET("/customers/:id", h.GetCustomer)
			admin.POST("/customers", h.AddCustomer)
			admin.PUT("/customers/:id", h.UpdateCustomer)
			admin.DELETE("/customers/:id", h.DeleteCustomer)

			admin.POST("/drafts", h.OpenDraft)
			admin.GET("/drafts/:id", h.GetDraft)
			admin.POST("/drafts/:id/lines", h.AddDraftLine)
			admin.PUT("/drafts/:id/lines/:index", h.UpdateDraftLine)
			admin.DELETE("/drafts/:id/lines/:index", h.RemoveDraftLine)
			admin.PUT("/drafts/:id/terms", h.UpdateDraftTerms)
			admin.POST("/drafts/:id/commit", h.CommitDraft)
			admin.DELETE("/drafts/:id", h.DiscardDraft)

			admin.POST("/invoices/:id/void", h.VoidInvoice)
			admin.POST("/invoices/overdue", h.MaterializeOverdue)
			admin.DELETE("/payments/:id", h.DeletePayment)

			admin.GET("/reports/sales", h.GetSalesReport)
			admin.GET("/reports/customers", h.GetCustomerSalesReport)
			admin.GET("/reports/tax", h.GetTaxReport)
			admin.GET("/reports/collection", h.GetCollectionReport)
			admin.GET("/reports/outstanding", h.GetOutstandingReport)
			admin.GET("/reports/valuation", h.GetStockValuation)
			admin.GET("/reports/movement", h.GetItemMovement)

			admin.GET("/settings", h.GetSettings)
			admin.PUT("/settings/:key", h.UpdateSetting)
			admin.GET("/stock/verify", h.VerifyStock)
			admin.POST("/stock/rebuild", h.RebuildStock)
		}
	}
}
