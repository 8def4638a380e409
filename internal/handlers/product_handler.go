package handlers

import (
	"bytes"
	"net/http"

	"go-pos-billing/internal/catalog"
	"go-pos-billing/internal/middleware"

	"github.com/gin-gonic/gin"
)

// --- GET: List or search items ---
// ?q= matches name, description and supplier; ?category= narrows it.
func (h *Handler) GetProducts(c *gin.Context) {
	items, err := h.Catalog.Search(c.Request.Context(), c.Query("q"), c.Query("category"))
	if err != nil {
		h.fail(c, "GetProducts", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := h.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "GetProduct", err)
		return
	}
	level, err := h.Catalog.Level(c.Request.Context(), *item)
	if err != nil {
		h.fail(c, "GetProduct", err)
		return
	}
	c.JSON(http.StatusOK, catalog.ClassifiedItem{Item: *item, Level: level})
}

func (h *Handler) GetCategories(c *gin.Context) {
	cats, err := h.Catalog.Categories(c.Request.Context())
	if err != nil {
		h.fail(c, "GetCategories", err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (h *Handler) GetSuppliers(c *gin.Context) {
	list, err := h.Catalog.Suppliers(c.Request.Context())
	if err != nil {
		h.fail(c, "GetSuppliers", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetLowStock(c *gin.Context) {
	items, err := h.Catalog.LowStock(c.Request.Context())
	if err != nil {
		h.fail(c, "GetLowStock", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// --- POST: Add a new item; quantity becomes the opening stock ---
func (h *Handler) AddProduct(c *gin.Context) {
	var in catalog.ItemInput

	// 1. Parse JSON Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	// 2. Save through the catalog so the ledger gets its opening entry
	item, err := h.Catalog.Create(c.Request.Context(), in, middleware.Actor(c))
	if err != nil {
		h.fail(c, "AddProduct", err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// --- PUT: Update descriptive fields and price; stock moves via /adjust ---
func (h *Handler) UpdateProduct(c *gin.Context) {
	// 1. Get ID from URL (e.g., /products/5)
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	// 2. Parse JSON Input
	var in catalog.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	// 3. Save updates
	item, err := h.Catalog.Update(c.Request.Context(), id, in, middleware.Actor(c))
	if err != nil {
		h.fail(c, "UpdateProduct", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": item})
}

type AdjustRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// --- POST: Adjust stock by a signed delta with a reason ---
func (h *Handler) AdjustStock(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "delta and reason are required")
		return
	}
	item, err := h.Catalog.AdjustStock(c.Request.Context(), id, req.Delta, req.Reason, middleware.Actor(c))
	if err != nil {
		h.fail(c, "AdjustStock", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// --- DELETE: Remove an item that no invoice references ---
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Catalog.Delete(c.Request.Context(), id, middleware.Actor(c)); err != nil {
		h.fail(c, "DeleteProduct", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// --- GET: Catalog as CSV ---
func (h *Handler) ExportCatalog(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.Catalog.Export(c.Request.Context(), &buf); err != nil {
		h.fail(c, "ExportCatalog", err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=catalog.csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// --- POST: Import a catalog CSV (multipart "file" or raw body) ---
func (h *Handler) ImportCatalog(c *gin.Context) {
	// 1. Get the file from the request
	body := c.Request.Body
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			badRequest(c, "Could not read upload")
			return
		}
		defer f.Close()
		body = f
	}

	// 2. Import in one unit of work; a bad row rejects the file
	res, err := h.Catalog.Import(c.Request.Context(), body, middleware.Actor(c))
	if err != nil {
		h.fail(c, "ImportCatalog", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
