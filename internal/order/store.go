// Package order records confirmed purchases and exposes order history.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/craverscorner/food-ordering-website/internal/cart"
)

var ErrNotFound = errors.New("order: not found")

// Order statuses. Orders start confirmed and progress through the kitchen
// pipeline in rank order.
const (
	StatusConfirmed = "confirmed"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusCompleted = "completed"
)

// Order is a confirmed purchase with its priced lines snapshotted at
// payment time.
type Order struct {
	ID           string          `json:"id"`
	UserID       *string         `json:"userId,omitempty"`
	Email        string          `json:"email"`
	CustomerName string          `json:"customerName"`
	Items        []cart.Line     `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
	CouponCode   *string         `json:"couponCode,omitempty"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
	PaymentRef   string          `json:"paymentRef"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// PGStore persists orders in postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

const orderColumns = `id, user_id, email, customer_name, items, subtotal, discount, total,
	coupon_code, currency, status, payment_ref, created_at`

func (s *PGStore) Create(ctx context.Context, o Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO orders (id, user_id, email, customer_name, items, subtotal, discount, total,
			coupon_code, currency, status, payment_ref)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, o.UserID, o.Email, o.CustomerName, items, o.Subtotal, o.Discount, o.Total,
		o.CouponCode, o.Currency, o.Status, o.PaymentRef,
	)
	return err
}

func (s *PGStore) GetForUser(ctx context.Context, orderID, userID string) (Order, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID)
	return scanOrder(row)
}

func (s *PGStore) ListForUser(ctx context.Context, userID string, limit, offset int) ([]Order, int, error) {
	var total int
	if err := s.Pool.QueryRow(ctx,
		`SELECT count(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	orders, err := collectOrders(rows)
	return orders, total, err
}

// List returns orders across all customers, optionally filtered by status.
func (s *PGStore) List(ctx context.Context, status string, limit, offset int) ([]Order, int, error) {
	var total int
	if err := s.Pool.QueryRow(ctx,
		`SELECT count(*) FROM orders WHERE ($1 = '' OR status = $1)`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	orders, err := collectOrders(rows)
	return orders, total, err
}

func (s *PGStore) GetStatus(ctx context.Context, orderID string) (string, error) {
	var status string
	err := s.Pool.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return status, err
}

func (s *PGStore) UpdateStatus(ctx context.Context, orderID, status string) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, orderID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o     Order
		items []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Email, &o.CustomerName, &items, &o.Subtotal,
		&o.Discount, &o.Total, &o.CouponCode, &o.Currency, &o.Status, &o.PaymentRef, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return Order{}, err
	}
	return o, nil
}
