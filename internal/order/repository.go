package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Repository interface {
	GetByID(ctx context.Context, orderID uint) (*Order, error)
	UpdateStatus(ctx context.Context, orderID uint, status Status) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, orderID uint) (*Order, error) {
	const q = `
	SELECT id, order_key, payment_method, total, currency, status, customer_email, created_at, updated_at
	FROM orders
	WHERE id = $1
	`

	var o Order
	err := r.db.QueryRowContext(ctx, q, orderID).Scan(
		&o.ID, &o.OrderKey, &o.PaymentMethod, &o.Total, &o.Currency,
		&o.Status, &o.CustomerEmail, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}
	return &o, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uint, status Status) error {
	const q = `UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`

	res, err := r.db.ExecContext(ctx, q, status, orderID)
	if err != nil {
		return fmt.Errorf("update order %d status: %w", orderID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}
