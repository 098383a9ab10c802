package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tradehaus/wholesale-api/internal/repository"
	"github.com/tradehaus/wholesale-api/internal/utils"
)

// CustomerHandler serves the admin customer directory.
type CustomerHandler struct {
	customers *repository.CustomerRepository
}

// NewCustomerHandler constructs a CustomerHandler.
func NewCustomerHandler(customers *repository.CustomerRepository) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// List handles GET /v1/admin/customers with free-text search.
func (h *CustomerHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.customers.List(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load customers")
		return
	}

	utils.SuccessWithPagination(c, 200, "Customers retrieved successfully", gin.H{
		"customers": result.Customers,
	}, result.Page, result.Limit, result.TotalItems)
}
