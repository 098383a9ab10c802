package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tradehaus/wholesale-api/internal/models"
	"github.com/tradehaus/wholesale-api/internal/utils"
)

// OrderRepository handles data access for orders and their items.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateWithItems persists an order atomically: customer upsert, order row,
// item rows, and per-item stock decrement all commit or roll back together.
// Each decrement is conditional on available stock; the first failure aborts
// the whole submission with InsufficientStockError.
//
// When convertReservations is true (eager policy) the submitting cart already
// holds its units in reserved_stock, so the decrement also releases the hold
// and drops the cart_reservations rows.
func (r *OrderRepository) CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderItem, convertReservations bool, cartToken string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Customer upsert by email, keeping the latest contact details.
	var customerID int
	if err := tx.QueryRowxContext(ctx, `
        INSERT INTO customers (name, email, company, phone)
        VALUES ($1, LOWER($2), $3, $4)
        ON CONFLICT (email) DO UPDATE SET
            name = EXCLUDED.name,
            company = EXCLUDED.company,
            phone = EXCLUDED.phone,
            updated_at = NOW()
        RETURNING id`,
		order.CustomerName, order.CustomerEmail, order.CustomerCompany, order.CustomerPhone,
	).Scan(&customerID); err != nil {
		return err
	}
	order.CustomerID = &customerID

	if err := tx.QueryRowxContext(ctx, `
        INSERT INTO orders (order_number, customer_id, customer_name, customer_email,
                            customer_company, customer_phone, total_amount, status)
        VALUES ($1, $2, $3, LOWER($4), $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`,
		order.OrderNumber, customerID, order.CustomerName, order.CustomerEmail,
		order.CustomerCompany, order.CustomerPhone, order.TotalAmount, order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return err
	}

	for i := range items {
		items[i].OrderID = order.ID
		if err := tx.QueryRowxContext(ctx, `
            INSERT INTO order_items (order_id, product_id, reference, size, description,
                                     quantity, unit_price, total_price)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            RETURNING id`,
			items[i].OrderID, items[i].ProductID, items[i].Reference, items[i].Size,
			items[i].Description, items[i].Quantity, items[i].UnitPrice, items[i].TotalPrice,
		).Scan(&items[i].ID); err != nil {
			return err
		}

		if err := decrementStock(ctx, tx, items[i].ProductID, items[i].Quantity, convertReservations); err != nil {
			return err
		}
	}

	if convertReservations && cartToken != "" {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cart_reservations WHERE cart_token = $1`, cartToken); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	order.Items = items
	return nil
}

// decrementStock converts one order line into a real stock deduction.
func decrementStock(ctx context.Context, tx *sqlx.Tx, productID, qty int, convertReservation bool) error {
	var (
		res sql.Result
		err error
	)
	if convertReservation {
		// The cart's own hold covers the quantity; release it together with
		// the deduction so availability for other shoppers is unchanged.
		res, err = tx.ExecContext(ctx, `
            UPDATE products
            SET stock = stock - $2, reserved_stock = GREATEST(reserved_stock - $2, 0), updated_at = NOW()
            WHERE id = $1 AND stock >= $2`, productID, qty)
	} else {
		res, err = tx.ExecContext(ctx, `
            UPDATE products
            SET stock = stock - $2, updated_at = NOW()
            WHERE id = $1 AND stock - reserved_stock >= $2`, productID, qty)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var remaining int
		if err := tx.GetContext(ctx, &remaining,
			`SELECT GREATEST(stock - reserved_stock, 0) FROM products WHERE id = $1`, productID); err != nil {
			return utils.ErrInsufficientStock
		}
		return &utils.InsufficientStockError{ProductID: productID, Remaining: remaining}
	}
	return nil
}

// GetByID returns an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id int) (*models.Order, error) {
	var order models.Order
	if err := r.db.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1 LIMIT 1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}

	if err := r.db.SelectContext(ctx, &order.Items,
		`SELECT * FROM order_items WHERE order_id = $1 ORDER BY id`, id); err != nil {
		return nil, err
	}
	return &order, nil
}

// OrderFilter holds filters for admin order queries.
type OrderFilter struct {
	Status string
	Email  string
	Search string
	Page   int
	Limit  int
}

// OrderListResult contains paginated order results.
type OrderListResult struct {
	Orders     []models.Order
	TotalItems int
	TotalPages int
	Page       int
	Limit      int
}

// List returns orders for the admin panel with filters and pagination,
// newest first.
func (r *OrderRepository) List(ctx context.Context, filter *OrderFilter) (*OrderListResult, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	offset := (filter.Page - 1) * filter.Limit

	baseWhere := `WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.Email != "" {
		baseWhere += fmt.Sprintf(" AND customer_email = LOWER($%d)", argIdx)
		args = append(args, filter.Email)
		argIdx++
	}
	if filter.Search != "" {
		baseWhere += fmt.Sprintf(" AND (order_number ILIKE $%d OR customer_name ILIKE $%d OR customer_email ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	countQuery := `SELECT COUNT(1) FROM orders ` + baseWhere
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, err
	}
	totalPages := (total + filter.Limit - 1) / filter.Limit

	listQuery := fmt.Sprintf(`SELECT * FROM orders %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		baseWhere, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders, listQuery, args...); err != nil {
		return nil, err
	}

	return &OrderListResult{
		Orders:     orders,
		TotalItems: total,
		TotalPages: totalPages,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// UpdateStatus sets the lifecycle status of an order. A transition to
// cancelled restores the stock of every item in the same transaction.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int, status models.OrderStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	if status == models.OrderStatusCancelled {
		if _, err := tx.ExecContext(ctx, `
            UPDATE products p
            SET stock = p.stock + oi.quantity, updated_at = NOW()
            FROM order_items oi
            WHERE oi.product_id = p.id AND oi.order_id = $1`, id); err != nil {
			return err
		}
	}

	return tx.Commit()
}
