package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tradehaus/wholesale-api/internal/models"
	"github.com/tradehaus/wholesale-api/internal/repository"
	"github.com/tradehaus/wholesale-api/internal/utils"
)

// CatalogReader is the data access the catalog service needs.
type CatalogReader interface {
	ListAll(ctx context.Context) ([]models.ProductVariant, error)
	GetByID(ctx context.Context, id int) (*models.ProductVariant, error)
	GetFacets(ctx context.Context) (*repository.Facets, error)
}

// CatalogFilters is the conjunctive filter set applied to product groups.
// Empty sets pass everything; the price range is inclusive on the group's
// wholesale price; nil bounds mean unbounded.
type CatalogFilters struct {
	Brands       []string
	Sections     []string
	ProductLines []string
	PriceMin     *float64
	PriceMax     *float64
	InStockOnly  bool
}

// ActiveCount counts the brand/section/line selections plus the in-stock
// flag. The price range is deliberately not counted: the storefront slider
// always carries a value, so counting it would show a permanently active
// filter badge.
func (f *CatalogFilters) ActiveCount() int {
	n := len(f.Brands) + len(f.Sections) + len(f.ProductLines)
	if f.InStockOnly {
		n++
	}
	return n
}

// CatalogService serves the storefront catalog: grouping, filtering, search
// and facet derivation. Filtering happens in memory over the full catalog
// snapshot — wholesale catalogs are a few thousand rows at most, and the
// group-level price/stock semantics do not map cleanly onto SQL.
type CatalogService struct {
	repo CatalogReader
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(repo CatalogReader) *CatalogService {
	return &CatalogService{repo: repo}
}

// GroupPage is one page of filtered product groups.
type GroupPage struct {
	Groups       []models.ProductGroup
	TotalItems   int
	TotalPages   int
	Page         int
	Limit        int
	ActiveFilter int
}

// VariantPage is one page of filtered flat variants.
type VariantPage struct {
	Variants   []models.ProductVariant
	TotalItems int
	TotalPages int
	Page       int
	Limit      int
}

// GetVariant returns a single variant by id.
func (s *CatalogService) GetVariant(ctx context.Context, id int) (*models.ProductVariant, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	return v, nil
}

// ListGroups returns the filtered, paginated grouped catalog view.
func (s *CatalogService) ListGroups(ctx context.Context, search string, filters CatalogFilters, page, limit int) (*GroupPage, error) {
	variants, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	groups := GroupVariants(variants)
	groups = ApplyFilters(groups, search, filters)

	total := len(groups)
	page, limit, start, end := paginate(total, page, limit)

	return &GroupPage{
		Groups:       groups[start:end],
		TotalItems:   total,
		TotalPages:   (total + limit - 1) / limit,
		Page:         page,
		Limit:        limit,
		ActiveFilter: filters.ActiveCount(),
	}, nil
}

// ListVariants returns the filtered, paginated flat variant view: the
// variants of every group that passes the filters, in group order.
func (s *CatalogService) ListVariants(ctx context.Context, search string, filters CatalogFilters, page, limit int) (*VariantPage, error) {
	variants, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	groups := ApplyFilters(GroupVariants(variants), search, filters)
	flat := make([]models.ProductVariant, 0, len(variants))
	for i := range groups {
		flat = append(flat, groups[i].Variants...)
	}

	total := len(flat)
	page, limit, start, end := paginate(total, page, limit)

	return &VariantPage{
		Variants:   flat[start:end],
		TotalItems: total,
		TotalPages: (total + limit - 1) / limit,
		Page:       page,
		Limit:      limit,
	}, nil
}

// Facets returns the distinct filter options over the whole catalog.
func (s *CatalogService) Facets(ctx context.Context) (*repository.Facets, error) {
	return s.repo.GetFacets(ctx)
}

// GroupVariants folds variant rows into product groups by reference,
// preserving first-encounter order. Group display fields come from the first
// variant seen for each reference.
func GroupVariants(variants []models.ProductVariant) []models.ProductGroup {
	var groups []models.ProductGroup
	index := make(map[string]int)

	for _, v := range variants {
		key := strings.ToLower(v.Reference)
		if i, ok := index[key]; ok {
			groups[i].Variants = append(groups[i].Variants, v)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, models.ProductGroup{
			Reference:      v.Reference,
			Description:    v.Description,
			Brand:          v.Brand,
			Section:        v.Section,
			ProductLine:    v.ProductLine,
			ImageURL:       v.ImageURL,
			WholesalePrice: v.WholesalePrice,
			Variants:       []models.ProductVariant{v},
		})
	}
	return groups
}

// ApplyFilters returns the groups matching the free-text search and every
// active filter. Filters are independent, so application order never changes
// the result.
func ApplyFilters(groups []models.ProductGroup, search string, filters CatalogFilters) []models.ProductGroup {
	out := make([]models.ProductGroup, 0, len(groups))
	for i := range groups {
		g := &groups[i]
		if !matchesSearch(g, search) {
			continue
		}
		if !memberOf(filters.Brands, g.Brand) {
			continue
		}
		if !memberOf(filters.Sections, g.Section) {
			continue
		}
		if !memberOf(filters.ProductLines, g.ProductLine) {
			continue
		}
		if filters.PriceMin != nil && g.WholesalePrice < *filters.PriceMin {
			continue
		}
		if filters.PriceMax != nil && g.WholesalePrice > *filters.PriceMax {
			continue
		}
		if filters.InStockOnly && !g.InStock() {
			continue
		}
		out = append(out, *g)
	}
	return out
}

// matchesSearch does a case-insensitive substring match over the group's
// descriptive fields.
func matchesSearch(g *models.ProductGroup, search string) bool {
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return true
	}
	for _, field := range []string{g.Description, g.Brand, g.Reference, g.Section, g.ProductLine} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// memberOf treats an empty set as "no constraint". Matching is
// case-insensitive.
func memberOf(set []string, value string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}

// paginate clamps page/limit and returns the slice bounds for the page.
func paginate(total, page, limit int) (p, l, start, end int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	start = (page - 1) * limit
	if start > total {
		start = total
	}
	end = start + limit
	if end > total {
		end = total
	}
	return page, limit, start, end
}
