// Package cart implements the shopping cart aggregate and its session
// storage. The aggregate itself is a plain value type; persistence (redis
// session cache, postgres snapshots, debounced write-back) lives in the
// service layer.
package cart

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/craverscorner/food-ordering-website/internal/money"
)

var (
	// ErrInvalidItem is returned when a line item lacks an identifier.
	ErrInvalidItem = errors.New("cart: invalid item")
	// ErrInvalidQuantity is returned for quantities below one.
	ErrInvalidQuantity = errors.New("cart: invalid quantity")
	// ErrNotFound indicates the requested cart could not be located.
	ErrNotFound = errors.New("cart: not found")
)

// Line is one catalog entry plus a quantity within a cart. UnitPrice is a
// snapshot taken when the item was added, not re-read from the catalog on
// every render.
type Line struct {
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Cart is an ordered collection of lines keyed by item id, plus the coupon
// code currently attached to it.
type Cart struct {
	Lines      []Line `json:"lines"`
	CouponCode string `json:"couponCode,omitempty"`
}

// AddItem appends the item with quantity 1, or increments the quantity when
// the item is already present.
func (c *Cart) AddItem(item Line) error {
	if item.ItemID == "" {
		return ErrInvalidItem
	}
	for i := range c.Lines {
		if c.Lines[i].ItemID == item.ItemID {
			c.Lines[i].Quantity++
			return nil
		}
	}
	item.Quantity = 1
	c.Lines = append(c.Lines, item)
	return nil
}

// RemoveItem deletes the whole line regardless of quantity.
func (c *Cart) RemoveItem(itemID string) error {
	if itemID == "" {
		return ErrInvalidItem
	}
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return nil
		}
	}
	return nil
}

// SetQuantity overwrites the quantity for a line. Quantities below one are
// rejected; callers remove the line instead. Setting quantity on an absent
// item is a no-op.
func (c *Cart) SetQuantity(itemID string, qty int) error {
	if itemID == "" {
		return ErrInvalidItem
	}
	if qty < 1 {
		return ErrInvalidQuantity
	}
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			c.Lines[i].Quantity = qty
			return nil
		}
	}
	return nil
}

// Clear empties the cart and detaches any coupon.
func (c *Cart) Clear() {
	c.Lines = nil
	c.CouponCode = ""
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.Lines) == 0 }

// Subtotal computes round2(Σ round2(unitPrice × quantity)) over all lines.
// Rounding happens after each multiplication and again after the sum.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range c.Lines {
		sum = sum.Add(money.LineTotal(line.UnitPrice, line.Quantity))
	}
	return money.Round2(sum)
}

// Merge folds a remote snapshot into this cart. Lines present in both keep
// the larger quantity; lines only present remotely are appended in order.
func (c *Cart) Merge(remote Cart) {
	for _, incoming := range remote.Lines {
		merged := false
		for i := range c.Lines {
			if c.Lines[i].ItemID == incoming.ItemID {
				if incoming.Quantity > c.Lines[i].Quantity {
					c.Lines[i].Quantity = incoming.Quantity
				}
				merged = true
				break
			}
		}
		if !merged {
			c.Lines = append(c.Lines, incoming)
		}
	}
	if c.CouponCode == "" {
		c.CouponCode = remote.CouponCode
	}
}
