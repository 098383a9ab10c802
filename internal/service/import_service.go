package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tradehaus/wholesale-api/internal/models"
	"github.com/tradehaus/wholesale-api/internal/utils"
)

// ImportCatalog is the data access the import pipeline needs.
type ImportCatalog interface {
	ListAll(ctx context.Context) ([]models.ProductVariant, error)
	BatchInsert(ctx context.Context, variants []models.ProductVariant) error
	UpdateImportRow(ctx context.Context, id int, stock int, retailPrice, wholesalePrice float64) error
}

// ImportMode controls what happens when an incoming row matches an existing
// (reference, size) variant.
type ImportMode string

const (
	// ImportModeSkip leaves existing variants untouched.
	ImportModeSkip ImportMode = "skip"
	// ImportModeUpdate overwrites stock and prices of existing variants.
	ImportModeUpdate ImportMode = "update"
)

// ImportRowError records one rejected source row with its 1-based line number.
type ImportRowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Success int              `json:"success"`
	Updated int              `json:"updated"`
	Skipped int              `json:"skipped"`
	Merged  int              `json:"merged"`
	Errors  []ImportRowError `json:"errors"`
}

const importBatchSize = 100

// ImportService ingests supplier CSV files into the catalog: fuzzy header
// mapping, price coercion, barcode merge, then batched persistence.
type ImportService struct {
	catalog ImportCatalog
}

// NewImportService constructs an ImportService.
func NewImportService(catalog ImportCatalog) *ImportService {
	return &ImportService{catalog: catalog}
}

// columnAliases maps each canonical field to the header spellings supplier
// exports use for it. Matching is case-insensitive on the normalized header.
var columnAliases = map[string][]string{
	"reference":       {"reference", "ref", "referencia", "article", "articulo", "sku", "item", "code", "codigo"},
	"size":            {"size", "talla", "sizes", "variant"},
	"description":     {"description", "descripcion", "desc", "name", "nombre", "product", "producto"},
	"brand":           {"brand", "marca", "manufacturer"},
	"section":         {"section", "seccion", "category", "categoria", "dept", "department"},
	"product_line":    {"product line", "productline", "line", "linea", "family", "familia", "collection"},
	"bar_code":        {"barcode", "bar code", "ean", "ean13", "upc", "gtin", "codigo de barras"},
	"retail_price":    {"retail price", "retail", "pvp", "rrp", "msrp", "precio venta"},
	"wholesale_price": {"wholesale price", "wholesale", "price", "precio", "cost", "coste", "precio mayorista"},
	"stock":           {"stock", "qty", "quantity", "cantidad", "units", "unidades", "inventory"},
}

// importRow is a parsed, coerced source row before persistence.
type importRow struct {
	line    int
	variant models.ProductVariant
}

// Run reads the CSV stream and applies it to the catalog. Row-level problems
// become entries in result.Errors; only an unreadable file or a header that
// cannot be mapped fails the whole run.
func (s *ImportService) Run(ctx context.Context, r io.Reader, mode ImportMode) (*ImportResult, error) {
	if mode != ImportModeSkip && mode != ImportModeUpdate {
		mode = ImportModeSkip
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	mapping, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []ImportRowError{}}

	rows, merged := s.parseRows(reader, mapping, result)
	result.Merged = merged

	if err := s.persist(ctx, rows, mode, result); err != nil {
		return nil, err
	}

	log.Info().
		Int("success", result.Success).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("merged", result.Merged).
		Int("errors", len(result.Errors)).
		Msg("Catalog import finished")

	return result, nil
}

// mapHeader resolves each header cell to a canonical field. A cell matches an
// alias exactly or by containment ("Wholesale Price (EUR)" still maps); when
// several aliases could claim a cell the longest match wins. Reference and
// size are mandatory; a file without them is unimportable.
func mapHeader(header []string) (map[int]string, error) {
	mapping := make(map[int]string)
	claimed := make(map[string]bool)

	for i, cell := range header {
		norm := normalizeHeader(cell)
		if norm == "" {
			continue
		}
		best := ""
		bestLen := 0
		for field, aliases := range columnAliases {
			if claimed[field] {
				continue
			}
			for _, alias := range aliases {
				if len(alias) <= bestLen {
					continue
				}
				if norm == alias || strings.Contains(norm, alias) {
					best = field
					bestLen = len(alias)
				}
			}
		}
		if best != "" {
			mapping[i] = best
			claimed[best] = true
		}
	}

	if !claimed["reference"] || !claimed["size"] {
		return nil, fmt.Errorf("%w: reference and size columns are required", utils.ErrMissingRequiredMapping)
	}
	return mapping, nil
}

// normalizeHeader lowercases and collapses separators so "Bar_Code" and
// "bar-code" both map to "bar code".
func normalizeHeader(cell string) string {
	s := strings.ToLower(strings.TrimSpace(cell))
	s = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// parseRows reads every data row, coerces values, merges barcode duplicates
// and rejects bad rows into result.Errors. Returns the deduplicated rows in
// file order plus the count of rows absorbed by a merge.
func (s *ImportService) parseRows(reader *csv.Reader, mapping map[int]string, result *ImportResult) ([]importRow, int) {
	var rows []importRow
	index := make(map[string]int)    // lower(reference)+"\x00"+lower(size) -> rows index
	barcodes := make(map[string]int) // bar_code -> rows index
	merged := 0
	line := 1

	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Line: line, Message: "unreadable row: " + err.Error()})
			continue
		}

		row, rowErr := buildRow(record, mapping, line)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}

		key := variantKey(row.variant.Reference, row.variant.Size)

		if row.variant.BarCode != "" {
			if j, ok := barcodes[row.variant.BarCode]; ok {
				prev := &rows[j].variant
				if variantKey(prev.Reference, prev.Size) != key {
					result.Errors = append(result.Errors, ImportRowError{
						Line:    row.line,
						Message: fmt.Sprintf("barcode %s already used by %s / %s", row.variant.BarCode, prev.Reference, prev.Size),
					})
					continue
				}
				// Same variant split across rows: stock adds up, the first
				// row's descriptive fields win.
				prev.Stock += row.variant.Stock
				merged++
				continue
			}
		}

		if _, ok := index[key]; ok {
			result.Errors = append(result.Errors, ImportRowError{
				Line:    row.line,
				Message: fmt.Sprintf("duplicate row for %s / %s", row.variant.Reference, row.variant.Size),
			})
			continue
		}

		index[key] = len(rows)
		if row.variant.BarCode != "" {
			barcodes[row.variant.BarCode] = len(rows)
		}
		rows = append(rows, row)
	}

	return rows, merged
}

// buildRow coerces one CSV record into a variant.
func buildRow(record []string, mapping map[int]string, line int) (importRow, *ImportRowError) {
	var v models.ProductVariant
	for i, field := range mapping {
		if i >= len(record) {
			continue
		}
		value := strings.TrimSpace(record[i])
		switch field {
		case "reference":
			v.Reference = value
		case "size":
			v.Size = value
		case "description":
			v.Description = value
		case "brand":
			v.Brand = value
		case "section":
			v.Section = value
		case "product_line":
			v.ProductLine = value
		case "bar_code":
			v.BarCode = value
		case "retail_price":
			p, err := parsePrice(value)
			if err != nil {
				return importRow{}, &ImportRowError{Line: line, Message: "invalid retail price: " + value}
			}
			v.RetailPrice = p
		case "wholesale_price":
			p, err := parsePrice(value)
			if err != nil {
				return importRow{}, &ImportRowError{Line: line, Message: "invalid wholesale price: " + value}
			}
			v.WholesalePrice = p
		case "stock":
			n, err := parseStock(value)
			if err != nil {
				return importRow{}, &ImportRowError{Line: line, Message: "invalid stock: " + value}
			}
			v.Stock = n
		}
	}

	if v.Reference == "" {
		return importRow{}, &ImportRowError{Line: line, Message: "missing reference"}
	}
	if v.Size == "" {
		return importRow{}, &ImportRowError{Line: line, Message: "missing size"}
	}

	return importRow{line: line, variant: v}, nil
}

// persist applies the parsed rows against a catalog snapshot taken once up
// front: new variants are batch-inserted, existing ones are skipped or updated
// per mode. Update mode writes only when stock or a price actually changed.
func (s *ImportService) persist(ctx context.Context, rows []importRow, mode ImportMode, result *ImportResult) error {
	snapshot, err := s.catalog.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to load catalog snapshot: %v", utils.ErrPersistence, err)
	}
	existing := make(map[string]*models.ProductVariant, len(snapshot))
	for i := range snapshot {
		existing[variantKey(snapshot[i].Reference, snapshot[i].Size)] = &snapshot[i]
	}

	batch := make([]models.ProductVariant, 0, importBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.catalog.BatchInsert(ctx, batch); err != nil {
			return fmt.Errorf("%w: batch insert failed: %v", utils.ErrPersistence, err)
		}
		result.Success += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, row := range rows {
		if current, ok := existing[variantKey(row.variant.Reference, row.variant.Size)]; ok {
			if mode != ImportModeUpdate {
				result.Skipped++
				continue
			}
			if current.Stock == row.variant.Stock &&
				current.RetailPrice == row.variant.RetailPrice &&
				current.WholesalePrice == row.variant.WholesalePrice {
				result.Skipped++
				continue
			}
			if err := s.catalog.UpdateImportRow(ctx, current.ID, row.variant.Stock, row.variant.RetailPrice, row.variant.WholesalePrice); err != nil {
				result.Errors = append(result.Errors, ImportRowError{Line: row.line, Message: "update failed: " + err.Error()})
				continue
			}
			result.Updated++
			continue
		}

		batch = append(batch, row.variant)
		if len(batch) >= importBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	return flush()
}

// parsePrice coerces supplier price spellings: currency symbols, thousands
// separators and the European decimal comma.
func parsePrice(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	s := strings.TrimSpace(value)
	s = strings.NewReplacer("€", "", "$", "", "£", "", " ", "").Replace(s)

	// "1.234,56" -> "1234.56", "12,50" -> "12.50"
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		}
		s = strings.ReplaceAll(s, ",", ".")
	}

	p, err := strconv.ParseFloat(s, 64)
	if err != nil || p < 0 {
		return 0, fmt.Errorf("invalid price %q", value)
	}
	return p, nil
}

// parseStock coerces the stock cell; empty means zero.
func parseStock(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid stock %q", value)
	}
	return n, nil
}

func variantKey(reference, size string) string {
	return strings.ToLower(reference) + "\x00" + strings.ToLower(size)
}
