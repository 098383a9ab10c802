package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradehaus/wholesale-api/internal/models"
	"github.com/tradehaus/wholesale-api/internal/repository"
)

func catalogFixture() []models.ProductVariant {
	return []models.ProductVariant{
		{ID: 1, Reference: "SHIRT-01", Size: "M", Description: "Linen shirt", Brand: "Acme", Section: "Men", ProductLine: "Summer", WholesalePrice: 12.50, Stock: 10},
		{ID: 2, Reference: "SHIRT-01", Size: "L", Description: "Linen shirt", Brand: "Acme", Section: "Men", ProductLine: "Summer", WholesalePrice: 12.50, Stock: 0},
		{ID: 3, Reference: "BOOT-07", Size: "38", Description: "Leather boot", Brand: "Globex", Section: "Women", ProductLine: "Winter", WholesalePrice: 40.00, Stock: 5},
		{ID: 4, Reference: "BOOT-07", Size: "39", Description: "Leather boot", Brand: "Globex", Section: "Women", ProductLine: "Winter", WholesalePrice: 40.00, Stock: 2},
		{ID: 5, Reference: "SCARF-11", Size: "U", Description: "Wool scarf", Brand: "Acme", Section: "Women", ProductLine: "Winter", WholesalePrice: 8.00, Stock: 0},
	}
}

func TestGroupVariants(t *testing.T) {
	groups := GroupVariants(catalogFixture())

	require.Len(t, groups, 3)

	// First-encounter order is preserved.
	assert.Equal(t, "SHIRT-01", groups[0].Reference)
	assert.Equal(t, "BOOT-07", groups[1].Reference)
	assert.Equal(t, "SCARF-11", groups[2].Reference)

	assert.Len(t, groups[0].Variants, 2)
	assert.Len(t, groups[1].Variants, 2)
	assert.Len(t, groups[2].Variants, 1)

	// Display fields come from the first variant seen.
	assert.Equal(t, "Linen shirt", groups[0].Description)
	assert.Equal(t, 12.50, groups[0].WholesalePrice)
}

func TestGroupVariantsCaseInsensitiveReference(t *testing.T) {
	groups := GroupVariants([]models.ProductVariant{
		{ID: 1, Reference: "ref-1", Size: "S"},
		{ID: 2, Reference: "REF-1", Size: "M"},
	})
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Variants, 2)
}

func TestApplyFilters(t *testing.T) {
	groups := GroupVariants(catalogFixture())

	t.Run("empty filters pass everything", func(t *testing.T) {
		out := ApplyFilters(groups, "", CatalogFilters{})
		assert.Len(t, out, 3)
	})

	t.Run("brand filter", func(t *testing.T) {
		out := ApplyFilters(groups, "", CatalogFilters{Brands: []string{"acme"}})
		require.Len(t, out, 2)
		assert.Equal(t, "SHIRT-01", out[0].Reference)
		assert.Equal(t, "SCARF-11", out[1].Reference)
	})

	t.Run("filters are conjunctive", func(t *testing.T) {
		out := ApplyFilters(groups, "", CatalogFilters{
			Brands:   []string{"Acme"},
			Sections: []string{"Women"},
		})
		require.Len(t, out, 1)
		assert.Equal(t, "SCARF-11", out[0].Reference)
	})

	t.Run("application order does not matter", func(t *testing.T) {
		combined := ApplyFilters(groups, "", CatalogFilters{
			Brands:   []string{"Acme"},
			Sections: []string{"Women"},
		})
		brandFirst := ApplyFilters(ApplyFilters(groups, "", CatalogFilters{Brands: []string{"Acme"}}), "", CatalogFilters{Sections: []string{"Women"}})
		sectionFirst := ApplyFilters(ApplyFilters(groups, "", CatalogFilters{Sections: []string{"Women"}}), "", CatalogFilters{Brands: []string{"Acme"}})
		assert.Equal(t, combined, brandFirst)
		assert.Equal(t, combined, sectionFirst)
	})

	t.Run("price bounds are inclusive", func(t *testing.T) {
		min, max := 12.50, 40.00
		out := ApplyFilters(groups, "", CatalogFilters{PriceMin: &min, PriceMax: &max})
		assert.Len(t, out, 2)

		tight := 12.50
		out = ApplyFilters(groups, "", CatalogFilters{PriceMin: &tight, PriceMax: &tight})
		require.Len(t, out, 1)
		assert.Equal(t, "SHIRT-01", out[0].Reference)
	})

	t.Run("in-stock needs one available variant", func(t *testing.T) {
		out := ApplyFilters(groups, "", CatalogFilters{InStockOnly: true})
		require.Len(t, out, 2)
		assert.Equal(t, "SHIRT-01", out[0].Reference)
		assert.Equal(t, "BOOT-07", out[1].Reference)
	})

	t.Run("search matches descriptive fields", func(t *testing.T) {
		out := ApplyFilters(groups, "leather", CatalogFilters{})
		require.Len(t, out, 1)
		assert.Equal(t, "BOOT-07", out[0].Reference)

		out = ApplyFilters(groups, "globex", CatalogFilters{})
		require.Len(t, out, 1)

		out = ApplyFilters(groups, "no-such-term", CatalogFilters{})
		assert.Empty(t, out)
	})

	t.Run("search and filters combine", func(t *testing.T) {
		out := ApplyFilters(groups, "winter", CatalogFilters{Brands: []string{"Acme"}})
		require.Len(t, out, 1)
		assert.Equal(t, "SCARF-11", out[0].Reference)
	})
}

func TestActiveCountExcludesPriceRange(t *testing.T) {
	min, max := 1.0, 2.0
	f := CatalogFilters{
		Brands:      []string{"Acme"},
		Sections:    []string{"Men", "Women"},
		PriceMin:    &min,
		PriceMax:    &max,
		InStockOnly: true,
	}
	assert.Equal(t, 4, f.ActiveCount())
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name                string
		total, page, limit  int
		wantStart, wantEnd  int
		wantPage, wantLimit int
	}{
		{"first page", 120, 1, 50, 0, 50, 1, 50},
		{"middle page", 120, 2, 50, 50, 100, 2, 50},
		{"last partial page", 120, 3, 50, 100, 120, 3, 50},
		{"past the end", 120, 9, 50, 120, 120, 9, 50},
		{"defaults applied", 10, 0, 0, 0, 10, 1, 50},
		{"limit clamped", 500, 1, 1000, 0, 100, 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit, start, end := paginate(tt.total, tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

type fakeCatalogReader struct {
	variants []models.ProductVariant
}

func (r *fakeCatalogReader) ListAll(ctx context.Context) ([]models.ProductVariant, error) {
	return append([]models.ProductVariant(nil), r.variants...), nil
}

func (r *fakeCatalogReader) GetByID(ctx context.Context, id int) (*models.ProductVariant, error) {
	for i := range r.variants {
		if r.variants[i].ID == id {
			return &r.variants[i], nil
		}
	}
	return nil, context.Canceled
}

func (r *fakeCatalogReader) GetFacets(ctx context.Context) (*repository.Facets, error) {
	return &repository.Facets{Brands: []string{"Acme", "Globex"}}, nil
}

func TestListGroups(t *testing.T) {
	svc := NewCatalogService(&fakeCatalogReader{variants: catalogFixture()})

	page, err := svc.ListGroups(context.Background(), "", CatalogFilters{Brands: []string{"Acme"}}, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 1, page.ActiveFilter)
	require.Len(t, page.Groups, 1)
	assert.Equal(t, "SHIRT-01", page.Groups[0].Reference)
}

func TestListVariantsFlattensGroupOrder(t *testing.T) {
	svc := NewCatalogService(&fakeCatalogReader{variants: catalogFixture()})

	page, err := svc.ListVariants(context.Background(), "", CatalogFilters{Sections: []string{"Women"}}, 1, 50)
	require.NoError(t, err)

	require.Equal(t, 3, page.TotalItems)
	assert.Equal(t, 3, page.Variants[0].ID)
	assert.Equal(t, 4, page.Variants[1].ID)
	assert.Equal(t, 5, page.Variants[2].ID)
}
