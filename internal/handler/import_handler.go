package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tradehaus/wholesale-api/internal/service"
	"github.com/tradehaus/wholesale-api/internal/utils"
)

// maxImportSize caps catalog CSV uploads at 20 MB.
const maxImportSize = 20 << 20

// ImportHandler serves the admin bulk catalog import endpoint.
type ImportHandler struct {
	importer *service.ImportService
}

// NewImportHandler constructs an ImportHandler.
func NewImportHandler(importer *service.ImportService) *ImportHandler {
	return &ImportHandler{importer: importer}
}

// Import handles POST /v1/admin/products/import?mode=skip|update (multipart form,
// field "file"). Row errors come back in the result, not as a failure.
func (h *ImportHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "file is required")
		return
	}
	if fileHeader.Size > maxImportSize {
		utils.Error(c, 400, "VALIDATION_ERROR", "File exceeds the 20MB limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to read uploaded file")
		return
	}
	defer file.Close()

	mode := service.ImportMode(c.DefaultQuery("mode", string(service.ImportModeSkip)))

	result, err := h.importer.Run(c.Request.Context(), file, mode)
	if err != nil {
		if errors.Is(err, utils.ErrMissingRequiredMapping) {
			utils.Error(c, 400, "MISSING_REQUIRED_MAPPING", err.Error())
			return
		}
		if errors.Is(err, utils.ErrPersistence) {
			utils.Error(c, 500, "PERSISTENCE_ERROR", "Import failed while writing to the catalog")
			return
		}
		log.Error().Err(err).Msg("Catalog import failed")
		utils.Error(c, 400, "VALIDATION_ERROR", "File could not be parsed")
		return
	}

	utils.Success(c, 200, "Import finished", gin.H{"result": result})
}
