package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradehaus/wholesale-api/internal/models"
	"github.com/tradehaus/wholesale-api/internal/utils"
)

type fakeImportCatalog struct {
	existing []models.ProductVariant
	inserted []models.ProductVariant
	updated  map[int]models.ProductVariant
}

func newFakeImportCatalog(existing ...models.ProductVariant) *fakeImportCatalog {
	return &fakeImportCatalog{
		existing: existing,
		updated:  make(map[int]models.ProductVariant),
	}
}

func (c *fakeImportCatalog) ListAll(ctx context.Context) ([]models.ProductVariant, error) {
	return append([]models.ProductVariant(nil), c.existing...), nil
}

func (c *fakeImportCatalog) BatchInsert(ctx context.Context, variants []models.ProductVariant) error {
	c.inserted = append(c.inserted, variants...)
	return nil
}

func (c *fakeImportCatalog) UpdateImportRow(ctx context.Context, id int, stock int, retailPrice, wholesalePrice float64) error {
	c.updated[id] = models.ProductVariant{ID: id, Stock: stock, RetailPrice: retailPrice, WholesalePrice: wholesalePrice}
	return nil
}

func runImport(t *testing.T, catalog ImportCatalog, csv string, mode ImportMode) *ImportResult {
	t.Helper()
	svc := NewImportService(catalog)
	result, err := svc.Run(context.Background(), strings.NewReader(csv), mode)
	require.NoError(t, err)
	return result
}

func TestImportInsertsNewVariants(t *testing.T) {
	catalog := newFakeImportCatalog()
	csv := "Reference,Size,Description,Brand,Wholesale Price,Stock\n" +
		"SHIRT-01,M,Linen shirt,Acme,12.50,10\n" +
		"SHIRT-01,L,Linen shirt,Acme,12.50,4\n"

	result := runImport(t, catalog, csv, ImportModeSkip)

	assert.Equal(t, 2, result.Success)
	assert.Empty(t, result.Errors)
	require.Len(t, catalog.inserted, 2)
	assert.Equal(t, "SHIRT-01", catalog.inserted[0].Reference)
	assert.Equal(t, 12.50, catalog.inserted[0].WholesalePrice)
	assert.Equal(t, 10, catalog.inserted[0].Stock)
}

func TestImportHeaderMapping(t *testing.T) {
	t.Run("fuzzy aliases and separators", func(t *testing.T) {
		catalog := newFakeImportCatalog()
		csv := "REF,Talla,Descripcion,Marca,precio mayorista,Cantidad\n" +
			"BOOT-07,38,Leather boot,Globex,40,5\n"

		result := runImport(t, catalog, csv, ImportModeSkip)

		assert.Equal(t, 1, result.Success)
		require.Len(t, catalog.inserted, 1)
		v := catalog.inserted[0]
		assert.Equal(t, "BOOT-07", v.Reference)
		assert.Equal(t, "38", v.Size)
		assert.Equal(t, "Leather boot", v.Description)
		assert.Equal(t, "Globex", v.Brand)
		assert.Equal(t, 40.0, v.WholesalePrice)
		assert.Equal(t, 5, v.Stock)
	})

	t.Run("underscored headers", func(t *testing.T) {
		catalog := newFakeImportCatalog()
		csv := "reference,size,Bar_Code,product-line\nX-1,S,8400000000017,Summer\n"

		result := runImport(t, catalog, csv, ImportModeSkip)

		assert.Equal(t, 1, result.Success)
		require.Len(t, catalog.inserted, 1)
		assert.Equal(t, "8400000000017", catalog.inserted[0].BarCode)
		assert.Equal(t, "Summer", catalog.inserted[0].ProductLine)
	})

	t.Run("missing required mapping fails the run", func(t *testing.T) {
		svc := NewImportService(newFakeImportCatalog())
		_, err := svc.Run(context.Background(), strings.NewReader("Description,Stock\nfoo,3\n"), ImportModeSkip)
		assert.ErrorIs(t, err, utils.ErrMissingRequiredMapping)
	})
}

func TestImportPriceCoercion(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"12.50", 12.50},
		{"12,50", 12.50},
		{"1.234,56", 1234.56},
		{"€ 8,00", 8.00},
		{"$40", 40.0},
		{"", 0},
	}
	for _, tt := range tests {
		got, err := parsePrice(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parsePrice("abc")
	assert.Error(t, err)
	_, err = parsePrice("-5")
	assert.Error(t, err)
}

func TestImportRowErrors(t *testing.T) {
	catalog := newFakeImportCatalog()
	csv := "Reference,Size,Wholesale Price,Stock\n" +
		",M,10,5\n" + // missing reference
		"SHIRT-01,,10,5\n" + // missing size
		"SHIRT-01,M,not-a-price,5\n" + // bad price
		"SHIRT-01,M,10,many\n" + // bad stock
		"SHIRT-01,M,10,5\n" + // good
		"SHIRT-01,M,10,5\n" // duplicate of the good row

	result := runImport(t, catalog, csv, ImportModeSkip)

	assert.Equal(t, 1, result.Success)
	require.Len(t, result.Errors, 5)
	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Contains(t, result.Errors[0].Message, "missing reference")
	assert.Contains(t, result.Errors[1].Message, "missing size")
	assert.Contains(t, result.Errors[2].Message, "invalid wholesale price")
	assert.Contains(t, result.Errors[3].Message, "invalid stock")
	assert.Contains(t, result.Errors[4].Message, "duplicate row")
}

func TestImportBarcodeMerge(t *testing.T) {
	t.Run("same variant rows merge and sum stock", func(t *testing.T) {
		catalog := newFakeImportCatalog()
		csv := "Reference,Size,Barcode,Stock,Description\n" +
			"SHIRT-01,M,8400000000017,2,First batch\n" +
			"SHIRT-01,M,8400000000017,3,Second batch\n"

		result := runImport(t, catalog, csv, ImportModeSkip)

		assert.Equal(t, 1, result.Success)
		assert.Equal(t, 1, result.Merged)
		assert.Empty(t, result.Errors)
		require.Len(t, catalog.inserted, 1)
		assert.Equal(t, 5, catalog.inserted[0].Stock)
		// First row's fields win.
		assert.Equal(t, "First batch", catalog.inserted[0].Description)
	})

	t.Run("barcode collision across variants is rejected", func(t *testing.T) {
		catalog := newFakeImportCatalog()
		csv := "Reference,Size,Barcode,Stock\n" +
			"SHIRT-01,M,8400000000017,2\n" +
			"BOOT-07,38,8400000000017,3\n"

		result := runImport(t, catalog, csv, ImportModeSkip)

		assert.Equal(t, 1, result.Success)
		assert.Zero(t, result.Merged)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, 3, result.Errors[0].Line)
		assert.Contains(t, result.Errors[0].Message, "already used")
	})
}

func TestImportModes(t *testing.T) {
	existing := models.ProductVariant{ID: 7, Reference: "SHIRT-01", Size: "M", Stock: 1, WholesalePrice: 10}
	csv := "Reference,Size,Wholesale Price,Retail Price,Stock\n" +
		"SHIRT-01,M,12.50,25,8\n" +
		"NEW-01,S,5,9,3\n"

	t.Run("skip leaves existing rows alone", func(t *testing.T) {
		catalog := newFakeImportCatalog(existing)
		result := runImport(t, catalog, csv, ImportModeSkip)

		assert.Equal(t, 1, result.Success)
		assert.Equal(t, 1, result.Skipped)
		assert.Zero(t, result.Updated)
		assert.Empty(t, catalog.updated)
	})

	t.Run("update overwrites stock and prices", func(t *testing.T) {
		catalog := newFakeImportCatalog(existing)
		result := runImport(t, catalog, csv, ImportModeUpdate)

		assert.Equal(t, 1, result.Success)
		assert.Equal(t, 1, result.Updated)
		assert.Zero(t, result.Skipped)

		updated, ok := catalog.updated[7]
		require.True(t, ok)
		assert.Equal(t, 8, updated.Stock)
		assert.Equal(t, 12.50, updated.WholesalePrice)
		assert.Equal(t, 25.0, updated.RetailPrice)
	})

	t.Run("update skips unchanged rows", func(t *testing.T) {
		same := models.ProductVariant{ID: 9, Reference: "SHIRT-01", Size: "M", Stock: 8, WholesalePrice: 12.50, RetailPrice: 25}
		catalog := newFakeImportCatalog(same)
		result := runImport(t, catalog, csv, ImportModeUpdate)

		assert.Equal(t, 1, result.Skipped)
		assert.Zero(t, result.Updated)
		assert.Empty(t, catalog.updated)
	})

	t.Run("skip twice is idempotent", func(t *testing.T) {
		catalog := newFakeImportCatalog(existing)
		runImport(t, catalog, csv, ImportModeSkip)

		// Second run against a catalog that now also has NEW-01.
		catalog2 := newFakeImportCatalog(existing, catalog.inserted[0])
		result := runImport(t, catalog2, csv, ImportModeSkip)

		assert.Zero(t, result.Success)
		assert.Equal(t, 2, result.Skipped)
		assert.Empty(t, catalog2.inserted)
	})
}
