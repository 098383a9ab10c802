package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tradehaus/wholesale-api/internal/service"
	"github.com/tradehaus/wholesale-api/internal/utils"
)

// CartHandler serves the storefront cart endpoints. Carts are addressed by an
// opaque token the client stores locally.
type CartHandler struct {
	carts *service.CartService
}

// NewCartHandler constructs a CartHandler.
func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// CreateCart handles POST /v1/cart.
func (h *CartHandler) CreateCart(c *gin.Context) {
	cart, err := h.carts.CreateCart(c.Request.Context())
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to create cart")
		return
	}
	utils.Success(c, 201, "Cart created", gin.H{"cart": cart})
}

// GetCart handles GET /v1/cart/:token.
func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.carts.GetCart(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, utils.ErrCartNotFound) {
			utils.Error(c, 404, "CART_NOT_FOUND", "Cart not found or expired")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load cart")
		return
	}
	utils.Success(c, 200, "Cart retrieved", gin.H{"cart": cart})
}

type addItemRequest struct {
	ProductID int `json:"productId" binding:"required"`
	Quantity  int `json:"quantity" binding:"required"`
}

// AddItem handles POST /v1/cart/:token/items.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "productId and quantity are required")
		return
	}

	cart, err := h.carts.AddToCart(c.Request.Context(), c.Param("token"), req.ProductID, req.Quantity)
	if err != nil {
		writeCartError(c, err)
		return
	}
	utils.Success(c, 200, "Item added to cart", gin.H{"cart": cart})
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem handles PUT /v1/cart/:token/items/:productId.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	productID, err := strconv.Atoi(c.Param("productId"))
	if err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "Invalid product id")
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "quantity is required")
		return
	}

	cart, err := h.carts.UpdateQuantity(c.Request.Context(), c.Param("token"), productID, req.Quantity)
	if err != nil {
		writeCartError(c, err)
		return
	}
	utils.Success(c, 200, "Cart updated", gin.H{"cart": cart})
}

// ClearCart handles DELETE /v1/cart/:token.
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.carts.ClearCart(c.Request.Context(), c.Param("token")); err != nil {
		if errors.Is(err, utils.ErrCartNotFound) {
			utils.Error(c, 404, "CART_NOT_FOUND", "Cart not found or expired")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to clear cart")
		return
	}
	utils.Success(c, 200, "Cart cleared", nil)
}

// writeCartError maps cart service errors onto the response envelope.
func writeCartError(c *gin.Context, err error) {
	var stockErr *utils.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		utils.Error(c, 409, "INSUFFICIENT_STOCK", stockErr.Error())
	case errors.Is(err, utils.ErrInvalidQuantity):
		utils.Error(c, 400, "INVALID_QUANTITY", "Quantity must be positive")
	case errors.Is(err, utils.ErrCartNotFound):
		utils.Error(c, 404, "CART_NOT_FOUND", "Cart not found or expired")
	case errors.Is(err, utils.ErrProductNotFound):
		utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Cart operation failed")
	}
}
