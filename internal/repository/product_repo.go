package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/tradehaus/wholesale-api/internal/models"
)

// ProductRepository handles data access for product variants.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ListAll returns every variant ordered for stable grouping by reference.
// The filter engine and import pipeline both work from this full snapshot.
func (r *ProductRepository) ListAll(ctx context.Context) ([]models.ProductVariant, error) {
	const q = `
        SELECT * FROM products
        ORDER BY reference, size, id`

	var variants []models.ProductVariant
	if err := r.db.SelectContext(ctx, &variants, q); err != nil {
		return nil, err
	}
	return variants, nil
}

// GetByID returns a single variant by id.
func (r *ProductRepository) GetByID(ctx context.Context, id int) (*models.ProductVariant, error) {
	const q = `SELECT * FROM products WHERE id = $1 LIMIT 1`

	var v models.ProductVariant
	if err := r.db.GetContext(ctx, &v, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &v, nil
}

// GetByReferenceSize returns a variant by its case-insensitive natural key.
func (r *ProductRepository) GetByReferenceSize(ctx context.Context, reference, size string) (*models.ProductVariant, error) {
	const q = `SELECT * FROM products WHERE LOWER(reference) = LOWER($1) AND LOWER(size) = LOWER($2) LIMIT 1`

	var v models.ProductVariant
	if err := r.db.GetContext(ctx, &v, q, reference, size); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &v, nil
}

// Create inserts a new variant and fills in the generated columns.
func (r *ProductRepository) Create(ctx context.Context, v *models.ProductVariant) error {
	const q = `
        INSERT INTO products (reference, size, description, brand, section, product_line,
                              bar_code, retail_price, wholesale_price, stock, reserved_stock, image_url)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11)
        RETURNING id, reserved_stock, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, q,
		v.Reference, v.Size, v.Description, v.Brand, v.Section, v.ProductLine,
		v.BarCode, v.RetailPrice, v.WholesalePrice, v.Stock, v.ImageURL,
	).Scan(&v.ID, &v.ReservedStock, &v.CreatedAt, &v.UpdatedAt)
}

// Update replaces the editable fields of an existing variant.
func (r *ProductRepository) Update(ctx context.Context, v *models.ProductVariant) error {
	const q = `
        UPDATE products
        SET reference = $1, size = $2, description = $3, brand = $4, section = $5,
            product_line = $6, bar_code = $7, retail_price = $8, wholesale_price = $9,
            stock = $10, image_url = $11, updated_at = NOW()
        WHERE id = $12
        RETURNING updated_at`

	return r.db.QueryRowxContext(ctx, q,
		v.Reference, v.Size, v.Description, v.Brand, v.Section, v.ProductLine,
		v.BarCode, v.RetailPrice, v.WholesalePrice, v.Stock, v.ImageURL, v.ID,
	).Scan(&v.UpdatedAt)
}

// Delete removes a variant by ID.
func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}

// SetImageURL updates just the image of a variant.
func (r *ProductRepository) SetImageURL(ctx context.Context, id int, imageURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET image_url = $2, updated_at = NOW() WHERE id = $1`, id, imageURL)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// BatchInsert inserts variants in chunks using a multi-row VALUES statement.
// Used by the import pipeline; chunk size is chosen by the caller.
func (r *ProductRepository) BatchInsert(ctx context.Context, variants []models.ProductVariant) error {
	if len(variants) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(variants))
	args := make([]interface{}, 0, len(variants)*10)
	for i, v := range variants {
		base := i * 10
		placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10))
		args = append(args,
			v.Reference, v.Size, v.Description, v.Brand, v.Section, v.ProductLine,
			v.BarCode, v.RetailPrice, v.WholesalePrice, v.Stock)
	}

	q := `INSERT INTO products (reference, size, description, brand, section, product_line,
                               bar_code, retail_price, wholesale_price, stock)
          VALUES ` + strings.Join(placeholders, ",")

	_, err := r.db.ExecContext(ctx, q, args...)
	return err
}

// UpdateImportRow writes the fields the import pipeline is allowed to change.
func (r *ProductRepository) UpdateImportRow(ctx context.Context, id int, stock int, retailPrice, wholesalePrice float64) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE products
        SET stock = $2, retail_price = $3, wholesale_price = $4, updated_at = NOW()
        WHERE id = $1`, id, stock, retailPrice, wholesalePrice)
	return err
}

// Facets holds the distinct filter options derived from the catalog.
type Facets struct {
	Brands       []string `json:"brands"`
	Sections     []string `json:"sections"`
	ProductLines []string `json:"productLines"`
	MinPrice     float64  `json:"minPrice"`
	MaxPrice     float64  `json:"maxPrice"`
}

// GetFacets returns the distinct brands/sections/lines and the wholesale
// price bounds over the whole catalog.
func (r *ProductRepository) GetFacets(ctx context.Context) (*Facets, error) {
	f := &Facets{}

	if err := r.db.SelectContext(ctx, &f.Brands,
		`SELECT DISTINCT brand FROM products WHERE brand != '' ORDER BY brand`); err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &f.Sections,
		`SELECT DISTINCT section FROM products WHERE section != '' ORDER BY section`); err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &f.ProductLines,
		`SELECT DISTINCT product_line FROM products WHERE product_line != '' ORDER BY product_line`); err != nil {
		return nil, err
	}

	var bounds struct {
		Min sql.NullFloat64 `db:"min"`
		Max sql.NullFloat64 `db:"max"`
	}
	if err := r.db.GetContext(ctx, &bounds,
		`SELECT MIN(wholesale_price) AS min, MAX(wholesale_price) AS max FROM products`); err != nil {
		return nil, err
	}
	f.MinPrice = bounds.Min.Float64
	f.MaxPrice = bounds.Max.Float64

	return f, nil
}
