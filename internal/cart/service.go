package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/craverscorner/food-ordering-website/internal/coupon"
	"github.com/craverscorner/food-ordering-website/internal/money"
)

// MenuLookup resolves the unit price snapshot for an item being added.
type MenuLookup interface {
	ItemPrice(ctx context.Context, itemID string) (name string, price decimal.Decimal, err error)
}

// SnapshotStore persists the remote cart snapshot for signed-in users.
type SnapshotStore interface {
	Get(ctx context.Context, userID string) (Cart, error)
	Save(ctx context.Context, userID string, c Cart) error
}

// SyncScheduler requests a debounced write-back of a user's session cart to
// the remote snapshot store.
type SyncScheduler interface {
	ScheduleSync(ctx context.Context, userID string) error
}

// Totals is the priced view of a cart: total = subtotal − discount.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	AppliedCoupon string          `json:"appliedCoupon,omitempty"`
}

// SessionStore keeps live carts in redis keyed by session identity.
type SessionStore struct {
	R      *redis.Client
	TTL    time.Duration
	Prefix string
}

func (s *SessionStore) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *SessionStore) key(id string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "cart:"
	}
	return prefix + id
}

// Get loads the session cart, reporting whether one existed.
func (s *SessionStore) Get(ctx context.Context, id string) (Cart, bool, error) {
	if s == nil || s.R == nil {
		return Cart{}, false, errors.New("cart session store not configured")
	}
	data, err := s.R.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{}, false, nil
		}
		return Cart{}, false, err
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return Cart{}, false, fmt.Errorf("decode session cart: %w", err)
	}
	return c, true, nil
}

// Put stores the session cart, refreshing its TTL.
func (s *SessionStore) Put(ctx context.Context, id string, c Cart) error {
	if s == nil || s.R == nil {
		return errors.New("cart session store not configured")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.R.Set(ctx, s.key(id), data, s.ttl()).Err()
}

// Delete drops the session cart.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.R == nil {
		return errors.New("cart session store not configured")
	}
	return s.R.Del(ctx, s.key(id)).Err()
}

// Service orchestrates cart mutations against the session store and keeps
// the coupon discount current on every change.
type Service struct {
	Sessions  *SessionStore
	Snapshots SnapshotStore
	Menu      MenuLookup
	Coupons   *coupon.Service
	Sync      SyncScheduler
}

// Identity names the cart owner: an authenticated user id or an anonymous
// session id, never both.
type Identity struct {
	UserID    string
	SessionID string
}

// Key is the session-store key for this identity.
func (id Identity) Key() (string, error) {
	if id.UserID != "" {
		return "u:" + id.UserID, nil
	}
	if id.SessionID != "" {
		return "s:" + id.SessionID, nil
	}
	return "", errors.New("cart identity is empty")
}

func (s *Service) load(ctx context.Context, id Identity) (Cart, string, error) {
	key, err := id.Key()
	if err != nil {
		return Cart{}, "", err
	}
	c, _, err := s.Sessions.Get(ctx, key)
	if err != nil {
		return Cart{}, "", err
	}
	return c, key, nil
}

func (s *Service) save(ctx context.Context, id Identity, key string, c Cart) error {
	if err := s.Sessions.Put(ctx, key, c); err != nil {
		return err
	}
	// Write-back to the remote snapshot is debounced and best effort.
	if id.UserID != "" && s.Sync != nil {
		_ = s.Sync.ScheduleSync(ctx, id.UserID)
	}
	return nil
}

// Get returns the current cart and its priced totals.
func (s *Service) Get(ctx context.Context, id Identity) (Cart, Totals, error) {
	c, _, err := s.load(ctx, id)
	if err != nil {
		return Cart{}, Totals{}, err
	}
	return c, s.Totals(ctx, c), nil
}

// AddItem snapshots the item's current catalog price and adds it to the cart.
func (s *Service) AddItem(ctx context.Context, id Identity, itemID string) (Cart, Totals, error) {
	if itemID == "" {
		return Cart{}, Totals{}, ErrInvalidItem
	}
	c, key, err := s.load(ctx, id)
	if err != nil {
		return Cart{}, Totals{}, err
	}
	name, price, err := s.Menu.ItemPrice(ctx, itemID)
	if err != nil {
		return Cart{}, Totals{}, err
	}
	if err := c.AddItem(Line{ItemID: itemID, Name: name, UnitPrice: price}); err != nil {
		return Cart{}, Totals{}, err
	}
	if err := s.save(ctx, id, key, c); err != nil {
		return Cart{}, Totals{}, err
	}
	return c, s.Totals(ctx, c), nil
}

// SetQuantity overwrites the quantity for a line.
func (s *Service) SetQuantity(ctx context.Context, id Identity, itemID string, qty int) (Cart, Totals, error) {
	c, key, err := s.load(ctx, id)
	if err != nil {
		return Cart{}, Totals{}, err
	}
	if err := c.SetQuantity(itemID, qty); err != nil {
		return Cart{}, Totals{}, err
	}
	if err := s.save(ctx, id, key, c); err != nil {
		return Cart{}, Totals{}, err
	}
	return c, s.Totals(ctx, c), nil
}

// RemoveItem deletes a line entirely.
func (s *Service) RemoveItem(ctx context.Context, id Identity, itemID string) (Cart, Totals, error) {
	c, key, err := s.load(ctx, id)
	if err != nil {
		return Cart{}, Totals{}, err
	}
	if err := c.RemoveItem(itemID); err != nil {
		return Cart{}, Totals{}, err
	}
	if err := s.save(ctx, id, key, c); err != nil {
		return Cart{}, Totals{}, err
	}
	return c, s.Totals(ctx, c), nil
}

// Clear empties the cart (post-checkout or explicit reset).
func (s *Service) Clear(ctx context.Context, id Identity) error {
	c, key, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	c.Clear()
	return s.save(ctx, id, key, c)
}

// ApplyCoupon validates the code against the current subtotal and attaches
// it to the cart. Validation failures leave the cart unchanged.
func (s *Service) ApplyCoupon(ctx context.Context, id Identity, code string) (Cart, Totals, error) {
	c, key, err := s.load(ctx, id)
	if err != nil {
		return Cart{}, Totals{}, err
	}
	d, err := s.Coupons.Resolve(ctx, code, c.Subtotal())
	if err != nil {
		return Cart{}, Totals{}, err
	}
	c.CouponCode = d.Rule.Code
	if err := s.save(ctx, id, key, c); err != nil {
		return Cart{}, Totals{}, err
	}
	return c, s.Totals(ctx, c), nil
}

// RemoveCoupon detaches the applied coupon.
func (s *Service) RemoveCoupon(ctx context.Context, id Identity) (Cart, Totals, error) {
	c, key, err := s.load(ctx, id)
	if err != nil {
		return Cart{}, Totals{}, err
	}
	c.CouponCode = ""
	if err := s.save(ctx, id, key, c); err != nil {
		return Cart{}, Totals{}, err
	}
	return c, s.Totals(ctx, c), nil
}

// Merge reconciles the anonymous session cart with the user's remote
// snapshot on sign-in. Quantity conflicts keep the larger value. The merged
// cart becomes the user's session cart and the anonymous session is dropped.
func (s *Service) Merge(ctx context.Context, userID, sessionID string) (Cart, Totals, error) {
	if userID == "" {
		return Cart{}, Totals{}, errors.New("user id required for merge")
	}
	local := Cart{}
	if sessionID != "" {
		anon, _, err := s.Sessions.Get(ctx, "s:"+sessionID)
		if err != nil {
			return Cart{}, Totals{}, err
		}
		local = anon
	}
	if s.Snapshots != nil {
		remote, err := s.Snapshots.Get(ctx, userID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Cart{}, Totals{}, err
		}
		local.Merge(remote)
	}
	userIdentity := Identity{UserID: userID}
	key, _ := userIdentity.Key()
	if err := s.save(ctx, userIdentity, key, local); err != nil {
		return Cart{}, Totals{}, err
	}
	if sessionID != "" {
		_ = s.Sessions.Delete(ctx, "s:"+sessionID)
	}
	return local, s.Totals(ctx, local), nil
}

// Totals prices the cart, re-evaluating the applied coupon against the
// current subtotal. A coupon that no longer evaluates contributes zero
// discount rather than failing the read.
func (s *Service) Totals(ctx context.Context, c Cart) Totals {
	subtotal := c.Subtotal()
	discount := decimal.Zero
	applied := ""
	if c.CouponCode != "" && s.Coupons != nil {
		if d, err := s.Coupons.Resolve(ctx, c.CouponCode, subtotal); err == nil {
			discount = d.Amount
			applied = d.Rule.Code
		}
	}
	return Totals{
		Subtotal:      subtotal,
		Discount:      discount,
		Total:         money.Round2(subtotal.Sub(discount)),
		AppliedCoupon: applied,
	}
}
