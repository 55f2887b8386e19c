package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mercato/customer-accounts/internal/domain"
)

type CartRepository interface {
	AddOrIncrement(ctx context.Context, customerID, productID, quantity int64) error
	Remove(ctx context.Context, customerID, productID int64) (bool, error)
	Exists(ctx context.Context, customerID, productID int64) (bool, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.CartItem, error)
}

type cartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &cartRepository{pool: pool}
}

// AddOrIncrement upserts a cart row keyed by (customer, product). The
// increment happens inside the database, so concurrent adds never lose
// quantity to a read-modify-write race.
func (r *cartRepository) AddOrIncrement(ctx context.Context, customerID, productID, quantity int64) error {
	const q = `
		INSERT INTO cart_items (customer_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id, product_id) DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, customerID, productID, quantity)
	return err
}

func (r *cartRepository) Remove(ctx context.Context, customerID, productID int64) (bool, error) {
	const q = `DELETE FROM cart_items WHERE customer_id = $1 AND product_id = $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, customerID, productID)
	if err != nil {
		return false, err
	}

	return result.RowsAffected() > 0, nil
}

func (r *cartRepository) Exists(ctx context.Context, customerID, productID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM cart_items WHERE customer_id = $1 AND product_id = $2)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, customerID, productID).Scan(&exists)
	return exists, err
}

// ListByCustomer returns cart items in the order they were first added.
func (r *cartRepository) ListByCustomer(ctx context.Context, customerID int64) ([]domain.CartItem, error) {
	const q = `
		SELECT ci.product_id, p.name, p.price_cents, ci.quantity, ci.added_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.customer_id = $1
		ORDER BY ci.added_at, ci.product_id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.PriceCents, &item.Quantity, &item.AddedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
