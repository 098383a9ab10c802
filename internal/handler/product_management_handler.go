package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tradehaus/wholesale-api/internal/models"
	"github.com/tradehaus/wholesale-api/internal/service"
	"github.com/tradehaus/wholesale-api/internal/utils"
)

// maxImageSize caps product image uploads at 5 MB.
const maxImageSize = 5 << 20

// ProductManagementHandler serves the admin catalog CRUD endpoints.
type ProductManagementHandler struct {
	products *service.ProductManagementService
	media    *service.MediaService
}

// NewProductManagementHandler constructs a ProductManagementHandler. media may
// be nil when no S3 bucket is configured; uploads then return 503.
func NewProductManagementHandler(products *service.ProductManagementService, media *service.MediaService) *ProductManagementHandler {
	return &ProductManagementHandler{products: products, media: media}
}

type variantRequest struct {
	Reference      string  `json:"reference" binding:"required"`
	Size           string  `json:"size" binding:"required"`
	Description    string  `json:"description"`
	Brand          string  `json:"brand"`
	Section        string  `json:"section"`
	ProductLine    string  `json:"productLine"`
	BarCode        string  `json:"barCode"`
	RetailPrice    float64 `json:"retailPrice"`
	WholesalePrice float64 `json:"wholesalePrice"`
	Stock          int     `json:"stock"`
	ImageURL       string  `json:"imageUrl"`
}

func (r *variantRequest) toModel() *models.ProductVariant {
	return &models.ProductVariant{
		Reference:      r.Reference,
		Size:           r.Size,
		Description:    r.Description,
		Brand:          r.Brand,
		Section:        r.Section,
		ProductLine:    r.ProductLine,
		BarCode:        r.BarCode,
		RetailPrice:    r.RetailPrice,
		WholesalePrice: r.WholesalePrice,
		Stock:          r.Stock,
		ImageURL:       r.ImageURL,
	}
}

// Create handles POST /v1/admin/products.
func (h *ProductManagementHandler) Create(c *gin.Context) {
	var req variantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "reference and size are required")
		return
	}

	variant, err := h.products.CreateVariant(c.Request.Context(), req.toModel())
	if err != nil {
		writeProductError(c, err)
		return
	}
	utils.Success(c, 201, "Product created", gin.H{"product": variant})
}

// Update handles PUT /v1/admin/products/:id.
func (h *ProductManagementHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "Invalid product id")
		return
	}

	var req variantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "reference and size are required")
		return
	}

	variant, err := h.products.UpdateVariant(c.Request.Context(), id, req.toModel())
	if err != nil {
		writeProductError(c, err)
		return
	}
	utils.Success(c, 200, "Product updated", gin.H{"product": variant})
}

// Delete handles DELETE /v1/admin/products/:id.
func (h *ProductManagementHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "Invalid product id")
		return
	}

	if err := h.products.DeleteVariant(c.Request.Context(), id); err != nil {
		writeProductError(c, err)
		return
	}
	utils.Success(c, 200, "Product deleted", nil)
}

// UploadImage handles POST /v1/admin/products/:id/image (multipart form,
// field "image").
func (h *ProductManagementHandler) UploadImage(c *gin.Context) {
	if h.media == nil {
		utils.Error(c, 503, "INTERNAL_ERROR", "Image storage is not configured")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "Invalid product id")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "image file is required")
		return
	}
	if fileHeader.Size > maxImageSize {
		utils.Error(c, 400, "VALIDATION_ERROR", "Image exceeds the 5MB limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to read uploaded file")
		return
	}
	defer file.Close()

	url, err := h.media.UploadProductImage(c.Request.Context(), id, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		writeProductError(c, err)
		return
	}

	if err := h.products.AttachImage(c.Request.Context(), id, url); err != nil {
		writeProductError(c, err)
		return
	}
	utils.Success(c, 200, "Image uploaded", gin.H{"imageUrl": url})
}

func writeProductError(c *gin.Context, err error) {
	var valErr *utils.ValidationError
	switch {
	case errors.As(err, &valErr):
		utils.Error(c, 400, "VALIDATION_ERROR", valErr.Error())
	case errors.Is(err, utils.ErrProductNotFound):
		utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Product operation failed")
	}
}
