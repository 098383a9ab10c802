package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tradehaus/wholesale-api/internal/models"
	"github.com/tradehaus/wholesale-api/internal/service"
	"github.com/tradehaus/wholesale-api/internal/utils"
)

// OrderHandler serves the storefront order submission endpoint.
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type submitOrderRequest struct {
	CartToken string `json:"cartToken" binding:"required"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Phone     string `json:"phone"`
}

// Submit handles POST /v1/orders. A stale cart can race a stock change, so
// 409 with the remaining quantity is a normal outcome here.
func (h *OrderHandler) Submit(c *gin.Context) {
	var req submitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "cartToken is required")
		return
	}

	result, err := h.orders.Submit(c.Request.Context(), req.CartToken, models.CustomerInfo{
		Name:    req.Name,
		Email:   req.Email,
		Company: req.Company,
		Phone:   req.Phone,
	})
	if err != nil {
		writeSubmitError(c, err)
		return
	}

	data := gin.H{
		"order":   result.Order,
		"emailId": result.EmailID,
	}
	if result.Warning != "" {
		utils.SuccessWithWarning(c, 201, "Order placed", result.Warning, data)
		return
	}
	utils.Success(c, 201, "Order placed", data)
}

func writeSubmitError(c *gin.Context, err error) {
	var stockErr *utils.InsufficientStockError
	var valErr *utils.ValidationError
	switch {
	case errors.As(err, &valErr):
		utils.Error(c, 400, "VALIDATION_ERROR", valErr.Error())
	case errors.As(err, &stockErr):
		utils.Error(c, 409, "INSUFFICIENT_STOCK", stockErr.Error())
	case errors.Is(err, utils.ErrCartNotFound):
		utils.Error(c, 404, "CART_NOT_FOUND", "Cart not found or expired")
	case errors.Is(err, utils.ErrPersistence):
		utils.Error(c, 500, "PERSISTENCE_ERROR", "Failed to save order")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Order submission failed")
	}
}
