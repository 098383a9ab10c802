package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tradehaus/wholesale-api/internal/models"
	"github.com/tradehaus/wholesale-api/internal/repository"
	"github.com/tradehaus/wholesale-api/internal/sse"
	"github.com/tradehaus/wholesale-api/internal/utils"
)

// ProductManagementService is the admin-side catalog CRUD. Stock edits fan out
// over SSE so open storefronts refresh their availability.
type ProductManagementService struct {
	repo   *repository.ProductRepository
	events sse.StockNotifier
}

// NewProductManagementService constructs a ProductManagementService.
func NewProductManagementService(repo *repository.ProductRepository, events sse.StockNotifier) *ProductManagementService {
	return &ProductManagementService{repo: repo, events: events}
}

// CreateVariant validates and inserts a new catalog variant.
func (s *ProductManagementService) CreateVariant(ctx context.Context, v *models.ProductVariant) (*models.ProductVariant, error) {
	if err := validateVariant(v); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByReferenceSize(ctx, v.Reference, v.Size); err == nil {
		return nil, &utils.ValidationError{Field: "reference", Message: "variant already exists for this reference and size"}
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// UpdateVariant validates and replaces an existing variant. A stock change
// triggers a stock event.
func (s *ProductManagementService) UpdateVariant(ctx context.Context, id int, v *models.ProductVariant) (*models.ProductVariant, error) {
	if err := validateVariant(v); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}

	v.ID = id
	v.ReservedStock = existing.ReservedStock
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}

	if v.Stock != existing.Stock {
		s.events.NotifyStockChanged(v)
	}
	return v, nil
}

// DeleteVariant removes a variant from the catalog.
func (s *ProductManagementService) DeleteVariant(ctx context.Context, id int) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return utils.ErrProductNotFound
		}
		return err
	}
	return s.repo.Delete(ctx, id)
}

// AttachImage stores the uploaded image URL on the variant.
func (s *ProductManagementService) AttachImage(ctx context.Context, id int, imageURL string) error {
	if err := s.repo.SetImageURL(ctx, id, imageURL); err != nil {
		if err == sql.ErrNoRows {
			return utils.ErrProductNotFound
		}
		return err
	}
	return nil
}

func validateVariant(v *models.ProductVariant) error {
	v.Reference = strings.TrimSpace(v.Reference)
	v.Size = strings.TrimSpace(v.Size)
	if v.Reference == "" {
		return &utils.ValidationError{Field: "reference", Message: "reference is required"}
	}
	if v.Size == "" {
		return &utils.ValidationError{Field: "size", Message: "size is required"}
	}
	if v.WholesalePrice < 0 || v.RetailPrice < 0 {
		return &utils.ValidationError{Field: "price", Message: "prices cannot be negative"}
	}
	if v.Stock < 0 {
		return &utils.ValidationError{Field: "stock", Message: "stock cannot be negative"}
	}
	return nil
}
