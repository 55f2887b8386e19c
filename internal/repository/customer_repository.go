package repository

import (
	"context"
	"errors"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mercato/customer-accounts/internal/domain"
)

type CustomerRepository interface {
	Create(ctx context.Context, req *domain.RegisterRequest, password string) (*domain.Customer, error)
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
	FindByID(ctx context.Context, id int64) (*domain.Customer, error)
	List(ctx context.Context, limit, offset int) ([]domain.Customer, error)
	Update(ctx context.Context, id int64, req *domain.UpdateCustomerRequest) (*domain.Customer, error)
	UpdatePassword(ctx context.Context, id int64, password string) error
	SoftDelete(ctx context.Context, id int64) (bool, error)
}

type customerRepository struct {
	pool *pgxpool.Pool
}

func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

const customerCols = `id, username, email, password_hash, status, address, phone, order_history, payment_methods, deleted, deleted_at, created_at, updated_at`

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.ID, &c.Username, &c.Email, &c.PasswordHash, &c.Status, &c.Address, &c.Phone,
		&c.OrderHistory, &c.PaymentMethods, &c.Deleted, &c.DeletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create stores a new customer. The password is hashed here, on the write
// path; callers never see anything but the ciphertext afterwards.
func (r *customerRepository) Create(ctx context.Context, req *domain.RegisterRequest, password string) (*domain.Customer, error) {
	passwordHash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO customers (username, email, password_hash, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + customerCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	c, err := scanCustomer(r.pool.QueryRow(ctx, q, req.Username, req.Email, passwordHash, req.Status))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}

	return c, nil
}

func (r *customerRepository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	const q = `SELECT ` + customerCols + ` FROM customers WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	c, err := scanCustomer(r.pool.QueryRow(ctx, q, email))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *customerRepository) FindByID(ctx context.Context, id int64) (*domain.Customer, error) {
	const q = `SELECT ` + customerCols + ` FROM customers WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	c, err := scanCustomer(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// List returns non-deleted customers in insertion order.
func (r *customerRepository) List(ctx context.Context, limit, offset int) ([]domain.Customer, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `
		SELECT ` + customerCols + `
		FROM customers
		WHERE deleted = false
		ORDER BY id
		LIMIT $1 OFFSET $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(
			&c.ID, &c.Username, &c.Email, &c.PasswordHash, &c.Status, &c.Address, &c.Phone,
			&c.OrderHistory, &c.PaymentMethods, &c.Deleted, &c.DeletedAt, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}

	return customers, rows.Err()
}

func (r *customerRepository) Update(ctx context.Context, id int64, req *domain.UpdateCustomerRequest) (*domain.Customer, error) {
	const q = `
		UPDATE customers
		SET
			username = COALESCE($2, username),
			email = COALESCE($3, email),
			address = COALESCE($4, address),
			phone = COALESCE($5, phone),
			order_history = COALESCE($6, order_history),
			payment_methods = COALESCE($7, payment_methods),
			status = COALESCE($8, status),
			deleted = COALESCE($9, deleted),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + customerCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	c, err := scanCustomer(r.pool.QueryRow(ctx, q, id,
		req.Username, req.Email, req.Address, req.Phone,
		req.OrderHistory, req.PaymentMethods, req.Status, req.Deleted,
	))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	return c, nil
}

func (r *customerRepository) UpdatePassword(ctx context.Context, id int64, password string) error {
	passwordHash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return err
	}

	const q = `UPDATE customers SET password_hash = $2, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, passwordHash)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

// SoftDelete marks the record inactive without removing it. The returned
// bool reports whether a row matched; callers treat both outcomes as success.
func (r *customerRepository) SoftDelete(ctx context.Context, id int64) (bool, error) {
	const q = `
		UPDATE customers
		SET deleted = true, deleted_at = now(), updated_at = now()
		WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}

	return result.RowsAffected() > 0, nil
}
