package handlers

import (
	"net/http"

	"go-pos-billing/internal/billing"
	"go-pos-billing/internal/middleware"
	"go-pos-billing/internal/parties"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetCustomers(c *gin.Context) {
	list, err := h.Parties.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.fail(c, "GetCustomers", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	cust, err := h.Parties.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "GetCustomer", err)
		return
	}
	invoices, err := h.Billing.List(c.Request.Context(), billing.ListFilter{CustomerID: id})
	if err != nil {
		h.fail(c, "GetCustomer", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": cust, "invoices": invoices})
}

func (h *Handler) AddCustomer(c *gin.Context) {
	var in parties.CustomerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	cust, err := h.Parties.Create(c.Request.Context(), in, middleware.Actor(c))
	if err != nil {
		h.fail(c, "AddCustomer", err)
		return
	}
	c.JSON(http.StatusCreated, cust)
}

func (h *Handler) UpdateCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in parties.CustomerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	cust, err := h.Parties.Update(c.Request.Context(), id, in, middleware.Actor(c))
	if err != nil {
		h.fail(c, "UpdateCustomer", err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *Handler) DeleteCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Parties.Delete(c.Request.Context(), id, middleware.Actor(c)); err != nil {
		h.fail(c, "DeleteCustomer", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}
