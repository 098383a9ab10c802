package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tradehaus/wholesale-api/internal/models"
	"github.com/tradehaus/wholesale-api/internal/repository"
	"github.com/tradehaus/wholesale-api/internal/service"
	"github.com/tradehaus/wholesale-api/internal/utils"
)

// AdminOrderHandler serves the admin panel order endpoints.
type AdminOrderHandler struct {
	orders *service.OrderService
}

// NewAdminOrderHandler constructs an AdminOrderHandler.
func NewAdminOrderHandler(orders *service.OrderService) *AdminOrderHandler {
	return &AdminOrderHandler{orders: orders}
}

// List handles GET /v1/admin/orders with status/email/search filters.
func (h *AdminOrderHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)
	filter := &repository.OrderFilter{
		Status: c.Query("status"),
		Email:  c.Query("email"),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}

	result, err := h.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load orders")
		return
	}

	utils.SuccessWithPagination(c, 200, "Orders retrieved successfully", gin.H{
		"orders": result.Orders,
	}, result.Page, result.Limit, result.TotalItems)
}

// Get handles GET /v1/admin/orders/:id.
func (h *AdminOrderHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, utils.ErrOrderNotFound) {
			utils.Error(c, 404, "ORDER_NOT_FOUND", "Order not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load order")
		return
	}
	utils.Success(c, 200, "Order retrieved successfully", gin.H{"order": order})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PUT /v1/admin/orders/:id/status.
func (h *AdminOrderHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "status is required")
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), id, models.OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrOrderNotFound):
			utils.Error(c, 404, "ORDER_NOT_FOUND", "Order not found")
		case errors.Is(err, utils.ErrInvalidStatusTransition):
			utils.Error(c, 400, "INVALID_STATUS_TRANSITION", "Status transition not allowed")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update order status")
		}
		return
	}
	utils.Success(c, 200, "Order status updated", gin.H{"order": order})
}
