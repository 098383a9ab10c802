package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tradehaus/wholesale-api/internal/service"
	"github.com/tradehaus/wholesale-api/internal/utils"
)

// CatalogHandler serves the public storefront catalog endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GetGroups handles GET /v1/catalog/groups — the grouped catalog view with
// search, filters and pagination.
func (h *CatalogHandler) GetGroups(c *gin.Context) {
	search := c.Query("search")
	filters := parseFilters(c)
	page, limit := parsePagination(c)

	result, err := h.catalog.ListGroups(c.Request.Context(), search, filters, page, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load catalog")
		return
	}

	utils.SuccessWithPagination(c, 200, "Catalog retrieved successfully", gin.H{
		"groups":        result.Groups,
		"activeFilters": result.ActiveFilter,
	}, result.Page, result.Limit, result.TotalItems)
}

// GetProducts handles GET /v1/catalog/products — the flat variant view.
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	search := c.Query("search")
	filters := parseFilters(c)
	page, limit := parsePagination(c)

	result, err := h.catalog.ListVariants(c.Request.Context(), search, filters, page, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load catalog")
		return
	}

	utils.SuccessWithPagination(c, 200, "Products retrieved successfully", gin.H{
		"products": result.Variants,
	}, result.Page, result.Limit, result.TotalItems)
}

// GetProduct handles GET /v1/catalog/products/:id.
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "Invalid product id")
		return
	}

	variant, err := h.catalog.GetVariant(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, utils.ErrProductNotFound) {
			utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load product")
		return
	}

	utils.Success(c, 200, "Product retrieved successfully", gin.H{"product": variant})
}

// GetFacets handles GET /v1/catalog/facets — the distinct filter options.
func (h *CatalogHandler) GetFacets(c *gin.Context) {
	facets, err := h.catalog.Facets(c.Request.Context())
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load facets")
		return
	}
	utils.Success(c, 200, "Facets retrieved successfully", gin.H{"facets": facets})
}

// parseFilters reads the filter query params. Multi-value filters accept
// comma-separated lists: ?brand=Acme,Globex.
func parseFilters(c *gin.Context) service.CatalogFilters {
	filters := service.CatalogFilters{
		Brands:       splitCSV(c.Query("brand")),
		Sections:     splitCSV(c.Query("section")),
		ProductLines: splitCSV(c.Query("line")),
		InStockOnly:  c.Query("inStock") == "true",
	}
	if v := c.Query("priceMin"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filters.PriceMin = &f
		}
	}
	if v := c.Query("priceMax"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filters.PriceMax = &f
		}
	}
	return filters
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsePagination(c *gin.Context) (page, limit int) {
	page = 1
	limit = 50
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return page, limit
}
