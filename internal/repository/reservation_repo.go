package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/tradehaus/wholesale-api/internal/utils"
)

// ReservationRepository implements the eager reservation policy against the
// shared catalog. Every hold is a single conditional UPDATE on the stock
// counters — never read-then-write — plus a cart_reservations row so holds of
// abandoned carts can be swept.
type ReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository creates a new ReservationRepository.
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Reserve atomically holds qty units of a variant for the given cart.
// The conditional UPDATE is the only oversell guard: when the row count is
// zero the available stock was insufficient and nothing changed.
func (r *ReservationRepository) Reserve(ctx context.Context, cartToken string, productID, qty int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE products
        SET reserved_stock = reserved_stock + $2, updated_at = NOW()
        WHERE id = $1 AND stock - reserved_stock >= $2`, productID, qty)
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

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO cart_reservations (cart_token, product_id, quantity)
        VALUES ($1, $2, $3)
        ON CONFLICT (cart_token, product_id)
        DO UPDATE SET quantity = cart_reservations.quantity + EXCLUDED.quantity, updated_at = NOW()`,
		cartToken, productID, qty); err != nil {
		return err
	}

	return tx.Commit()
}

// Release returns qty previously held units of a variant to the pool.
// Clamped so counters never go negative if a release races an expiry sweep.
func (r *ReservationRepository) Release(ctx context.Context, cartToken string, productID, qty int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
        UPDATE products
        SET reserved_stock = GREATEST(reserved_stock - $2, 0), updated_at = NOW()
        WHERE id = $1`, productID, qty); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
        UPDATE cart_reservations
        SET quantity = GREATEST(quantity - $3, 0), updated_at = NOW()
        WHERE cart_token = $1 AND product_id = $2`, cartToken, productID, qty); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
        DELETE FROM cart_reservations
        WHERE cart_token = $1 AND product_id = $2 AND quantity <= 0`, cartToken, productID); err != nil {
		return err
	}

	return tx.Commit()
}

// ReleaseCart returns every hold of a cart, e.g. when the cart is cleared.
func (r *ReservationRepository) ReleaseCart(ctx context.Context, cartToken string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
        UPDATE products p
        SET reserved_stock = GREATEST(p.reserved_stock - cr.quantity, 0), updated_at = NOW()
        FROM cart_reservations cr
        WHERE cr.product_id = p.id AND cr.cart_token = $1`, cartToken); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cart_reservations WHERE cart_token = $1`, cartToken); err != nil {
		return err
	}

	return tx.Commit()
}

// ReleaseExpired sweeps holds older than maxAge and returns how many rows
// were released. Run periodically so abandoned carts do not leak
// reserved_stock forever.
func (r *ReservationRepository) ReleaseExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	cutoff := time.Now().UTC().Add(-maxAge)

	if _, err := tx.ExecContext(ctx, `
        UPDATE products p
        SET reserved_stock = GREATEST(p.reserved_stock - cr.quantity, 0), updated_at = NOW()
        FROM cart_reservations cr
        WHERE cr.product_id = p.id AND cr.updated_at < $1`, cutoff); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM cart_reservations WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("released", n).Msg("Expired cart reservations released")
	}
	return int(n), nil
}
