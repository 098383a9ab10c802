package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tradehaus/wholesale-api/internal/models"
)

// CustomerRepository handles data access for the customer directory.
// Customers are written by the order flow (upsert by email inside the order
// transaction); this repository serves the admin panel reads.
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// GetByEmail returns a customer by email (case-insensitive).
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var c models.Customer
	if err := r.db.GetContext(ctx, &c,
		`SELECT * FROM customers WHERE email = LOWER($1) LIMIT 1`, email); err != nil {
		return nil, err
	}
	return &c, nil
}

// CustomerListResult contains paginated customer results.
type CustomerListResult struct {
	Customers  []models.Customer
	TotalItems int
	TotalPages int
	Page       int
	Limit      int
}

// List returns customers with optional free-text search on name/email/company.
func (r *CustomerRepository) List(ctx context.Context, search string, page, limit int) (*CustomerListResult, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	baseWhere := `WHERE 1=1`
	args := []interface{}{}
	argIdx := 1
	if search != "" {
		baseWhere += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM customers `+baseWhere, args...); err != nil {
		return nil, err
	}

	listQuery := fmt.Sprintf(`SELECT * FROM customers %s ORDER BY name, email LIMIT $%d OFFSET $%d`,
		baseWhere, argIdx, argIdx+1)
	args = append(args, limit, offset)

	var customers []models.Customer
	if err := r.db.SelectContext(ctx, &customers, listQuery, args...); err != nil {
		return nil, err
	}

	return &CustomerListResult{
		Customers:  customers,
		TotalItems: total,
		TotalPages: (total + limit - 1) / limit,
		Page:       page,
		Limit:      limit,
	}, nil
}
