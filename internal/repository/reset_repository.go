package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mercato/customer-accounts/internal/domain"
)

type ResetTokenRepository interface {
	// Replace deletes any prior token for the customer and stores the new
	// digest, atomically. At most one live token exists per customer.
	Replace(ctx context.Context, customerID int64, tokenHash string, expiresAt time.Time) error
	FindValid(ctx context.Context, tokenHash string) (*domain.ResetToken, error)
	DeleteByCustomer(ctx context.Context, customerID int64) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type resetTokenRepository struct {
	pool *pgxpool.Pool
}

func NewResetTokenRepository(pool *pgxpool.Pool) ResetTokenRepository {
	return &resetTokenRepository{pool: pool}
}

func (r *resetTokenRepository) Replace(ctx context.Context, customerID int64, tokenHash string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM reset_tokens WHERE customer_id = $1`, customerID); err != nil {
		return err
	}

	const q = `
		INSERT INTO reset_tokens (customer_id, token_hash, expires_at)
		VALUES ($1, $2, $3)`
	if _, err := tx.Exec(ctx, q, customerID, tokenHash, expiresAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *resetTokenRepository) FindValid(ctx context.Context, tokenHash string) (*domain.ResetToken, error) {
	const q = `
		SELECT id, customer_id, token_hash, created_at, expires_at
		FROM reset_tokens
		WHERE token_hash = $1
		  AND expires_at > now()`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.ResetToken
	err := r.pool.QueryRow(ctx, q, tokenHash).Scan(&t.ID, &t.CustomerID, &t.TokenHash, &t.CreatedAt, &t.ExpiresAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *resetTokenRepository) DeleteByCustomer(ctx context.Context, customerID int64) error {
	const q = `DELETE FROM reset_tokens WHERE customer_id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, customerID)
	return err
}

func (r *resetTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM reset_tokens WHERE expires_at < now()`
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
