package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store resolves coupon rules by their canonical code.
type Store interface {
	GetByCode(ctx context.Context, code string) (Rule, error)
}

// PGStore persists coupon rules in postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

const ruleColumns = `id, code, discount_type, discount_value, min_order_amount, max_discount, valid_from, valid_until, active`

// GetByCode fetches a rule by its normalised code. Missing rows map to
// ErrNotFound; inactive coupons are returned as-is and rejected by Evaluate.
func (s *PGStore) GetByCode(ctx context.Context, code string) (Rule, error) {
	if s == nil || s.Pool == nil {
		return Rule{}, errors.New("coupon store not configured")
	}
	row := s.Pool.QueryRow(ctx,
		`SELECT `+ruleColumns+` FROM coupons WHERE code = $1`,
		NormalizeCode(code))
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rule{}, ErrNotFound
		}
		return Rule{}, err
	}
	return rule, nil
}

// Create inserts a new coupon rule and returns it with its generated id.
func (s *PGStore) Create(ctx context.Context, r Rule) (Rule, error) {
	if s == nil || s.Pool == nil {
		return Rule{}, errors.New("coupon store not configured")
	}
	r.ID = uuid.NewString()
	r.Code = NormalizeCode(r.Code)
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO coupons (id, code, discount_type, discount_value, min_order_amount, max_discount, valid_from, valid_until, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.Code, string(r.Kind), r.Value, nullableDecimal(r.MinOrderAmount), nullableDecimal(r.MaxDiscount),
		r.ValidFrom, r.ValidUntil, r.Active)
	if err != nil {
		return Rule{}, err
	}
	return r, nil
}

// Update overwrites an existing rule identified by code.
func (s *PGStore) Update(ctx context.Context, code string, r Rule) (Rule, error) {
	if s == nil || s.Pool == nil {
		return Rule{}, errors.New("coupon store not configured")
	}
	row := s.Pool.QueryRow(ctx,
		`UPDATE coupons
		 SET discount_type = $2, discount_value = $3, min_order_amount = $4, max_discount = $5,
		     valid_from = $6, valid_until = $7, active = $8, updated_at = now()
		 WHERE code = $1
		 RETURNING `+ruleColumns,
		NormalizeCode(code), string(r.Kind), r.Value, nullableDecimal(r.MinOrderAmount), nullableDecimal(r.MaxDiscount),
		r.ValidFrom, r.ValidUntil, r.Active)
	updated, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rule{}, ErrNotFound
		}
		return Rule{}, err
	}
	return updated, nil
}

// Delete removes a rule by code.
func (s *PGStore) Delete(ctx context.Context, code string) error {
	if s == nil || s.Pool == nil {
		return errors.New("coupon store not configured")
	}
	tag, err := s.Pool.Exec(ctx, `DELETE FROM coupons WHERE code = $1`, NormalizeCode(code))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all rules ordered by creation time, newest first.
func (s *PGStore) List(ctx context.Context) ([]Rule, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("coupon store not configured")
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+ruleColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func scanRule(row pgx.Row) (Rule, error) {
	var (
		r        Rule
		kind     string
		minOrder decimal.NullDecimal
		maxDisc  decimal.NullDecimal
		from     time.Time
		until    time.Time
	)
	if err := row.Scan(&r.ID, &r.Code, &kind, &r.Value, &minOrder, &maxDisc, &from, &until, &r.Active); err != nil {
		return Rule{}, err
	}
	r.Kind = Kind(kind)
	r.ValidFrom = from
	r.ValidUntil = until
	if minOrder.Valid {
		r.MinOrderAmount = &minOrder.Decimal
	}
	if maxDisc.Valid {
		r.MaxDiscount = &maxDisc.Decimal
	}
	return r, nil
}

func nullableDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}
