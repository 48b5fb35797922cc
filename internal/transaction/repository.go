package transaction

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByToken(ctx context.Context, token string) (*Transaction, error)
	GetByBuyOrder(ctx context.Context, buyOrder string) (*Transaction, error)
	GetLatestByOrderID(ctx context.Context, orderID uint) (*Transaction, error)
	UpdateByToken(ctx context.Context, token string, status Status, response json.RawMessage) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const selectColumns = `
	SELECT id, order_id, buy_order, session_id, token, amount, status, product, transbank_response, created_at, updated_at
	FROM transbank_transactions
`

func (r *repository) Create(ctx context.Context, t *Transaction) error {
	const q = `
	INSERT INTO transbank_transactions (
		order_id,
		buy_order,
		session_id,
		token,
		amount,
		status,
		product,
		transbank_response
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id, created_at, updated_at;
	`

	err := r.db.QueryRowContext(ctx, q,
		t.OrderID,
		t.BuyOrder,
		t.SessionID,
		t.Token,
		t.Amount,
		t.Status,
		t.Product,
		nullableJSON(t.TransbankResponse),
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction for order %d: %w", t.OrderID, err)
	}
	return nil
}

func (r *repository) GetByToken(ctx context.Context, token string) (*Transaction, error) {
	return r.getOne(ctx, selectColumns+`WHERE token = $1 ORDER BY id DESC LIMIT 1`, token)
}

func (r *repository) GetByBuyOrder(ctx context.Context, buyOrder string) (*Transaction, error) {
	return r.getOne(ctx, selectColumns+`WHERE buy_order = $1 ORDER BY id DESC LIMIT 1`, buyOrder)
}

// GetLatestByOrderID returns the most recent attempt for the order, whatever
// its status.
func (r *repository) GetLatestByOrderID(ctx context.Context, orderID uint) (*Transaction, error) {
	return r.getOne(ctx, selectColumns+`WHERE order_id = $1 ORDER BY id DESC LIMIT 1`, orderID)
}

// UpdateByToken finalizes an initialized transaction. A record that already
// left the initialized state is never overwritten and yields
// ErrAlreadyFinalized.
func (r *repository) UpdateByToken(ctx context.Context, token string, status Status, response json.RawMessage) error {
	const q = `
	UPDATE transbank_transactions
	SET status = $1, transbank_response = COALESCE($2, transbank_response), updated_at = now()
	WHERE token = $3 AND status = $4;
	`

	res, err := r.db.ExecContext(ctx, q, status, nullableJSON(response), token, StatusInitialized)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", token, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missOrFinalized(ctx, token)
	}
	return nil
}

func (r *repository) missOrFinalized(ctx context.Context, token string) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM transbank_transactions WHERE token = $1)`, token).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check transaction %s: %w", token, err)
	}
	if !exists {
		return ErrTransactionNotFound
	}
	return ErrAlreadyFinalized
}

func (r *repository) getOne(ctx context.Context, q string, arg any) (*Transaction, error) {
	var (
		t   Transaction
		raw []byte
	)
	err := r.db.QueryRowContext(ctx, q, arg).Scan(
		&t.ID, &t.OrderID, &t.BuyOrder, &t.SessionID, &t.Token, &t.Amount,
		&t.Status, &t.Product, &raw, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(raw) > 0 {
		t.TransbankResponse = json.RawMessage(raw)
	}
	return &t, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
