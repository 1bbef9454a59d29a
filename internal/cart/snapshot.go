package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGSnapshotStore keeps the remote cart snapshot in postgres, one row per
// user, last write wins.
type PGSnapshotStore struct {
	Pool *pgxpool.Pool
}

// Get loads the snapshot for a user. Missing rows map to ErrNotFound.
func (s *PGSnapshotStore) Get(ctx context.Context, userID string) (Cart, error) {
	if s == nil || s.Pool == nil {
		return Cart{}, errors.New("cart snapshot store not configured")
	}
	var (
		items  []byte
		coupon *string
	)
	err := s.Pool.QueryRow(ctx,
		`SELECT items, coupon_code FROM carts WHERE user_id = $1`, userID).
		Scan(&items, &coupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, err
	}
	var c Cart
	if len(items) > 0 {
		if err := json.Unmarshal(items, &c.Lines); err != nil {
			return Cart{}, fmt.Errorf("decode cart snapshot: %w", err)
		}
	}
	if coupon != nil {
		c.CouponCode = *coupon
	}
	return c, nil
}

// Save upserts the snapshot for a user.
func (s *PGSnapshotStore) Save(ctx context.Context, userID string, c Cart) error {
	if s == nil || s.Pool == nil {
		return errors.New("cart snapshot store not configured")
	}
	items, err := json.Marshal(c.Lines)
	if err != nil {
		return err
	}
	var coupon *string
	if c.CouponCode != "" {
		coupon = &c.CouponCode
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO carts (user_id, items, coupon_code, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id)
		 DO UPDATE SET items = EXCLUDED.items, coupon_code = EXCLUDED.coupon_code, updated_at = now()`,
		userID, items, coupon)
	return err
}
