package cart

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(id, price string) Line {
	return Line{ItemID: id, Name: id, UnitPrice: dec(price)}
}

func TestAddItemIncrementsExisting(t *testing.T) {
	var c Cart
	if err := c.AddItem(line("pizza", "12.99")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.AddItem(line("pizza", "12.99")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Lines) != 1 || c.Lines[0].Quantity != 2 {
		t.Fatalf("expected single line with qty 2, got %+v", c.Lines)
	}
}

func TestAddItemRequiresID(t *testing.T) {
	var c Cart
	if err := c.AddItem(Line{UnitPrice: dec("1")}); !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("expected ErrInvalidItem, got %v", err)
	}
}

func TestRemoveItemDeletesWholeLine(t *testing.T) {
	var c Cart
	_ = c.AddItem(line("pizza", "12.99"))
	_ = c.AddItem(line("pizza", "12.99"))
	if err := c.RemoveItem("pizza"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsEmpty() {
		t.Fatalf("expected empty cart, got %+v", c.Lines)
	}
}

func TestSetQuantityRejectsBelowOne(t *testing.T) {
	var c Cart
	_ = c.AddItem(line("pizza", "12.99"))
	if err := c.SetQuantity("pizza", 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestSetQuantityIdempotent(t *testing.T) {
	var c Cart
	_ = c.AddItem(line("pizza", "12.99"))
	if err := c.SetQuantity("pizza", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.SetQuantity("pizza", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Lines[0].Quantity != 3 {
		t.Fatalf("expected qty 3, got %d", c.Lines[0].Quantity)
	}
}

func TestSubtotalScenarioA(t *testing.T) {
	// [{12.99 × 2}, {8.99 × 1}] → 34.97
	var c Cart
	_ = c.AddItem(line("pizza", "12.99"))
	_ = c.SetQuantity("pizza", 2)
	_ = c.AddItem(line("burger", "8.99"))
	if got := c.Subtotal(); !got.Equal(dec("34.97")) {
		t.Fatalf("expected subtotal 34.97, got %s", got)
	}
}

func TestSubtotalZeroIffEmpty(t *testing.T) {
	var c Cart
	if !c.Subtotal().IsZero() {
		t.Fatal("empty cart should have zero subtotal")
	}
	_ = c.AddItem(line("tea", "0.01"))
	if c.Subtotal().IsZero() {
		t.Fatal("non-empty cart should have positive subtotal")
	}
}

func TestSubtotalRoundsPerLine(t *testing.T) {
	// Each line rounds independently: round2(1.005×1) + round2(1.005×1) =
	// 1.01 + 1.01 = 2.02, not round2(2.01) = 2.01.
	var c Cart
	_ = c.AddItem(line("a", "1.005"))
	_ = c.AddItem(line("b", "1.005"))
	if got := c.Subtotal(); !got.Equal(dec("2.02")) {
		t.Fatalf("expected per-line rounding to yield 2.02, got %s", got)
	}
}

func TestMergePrefersLargerQuantity(t *testing.T) {
	var local Cart
	_ = local.AddItem(line("pizza", "12.99"))
	_ = local.SetQuantity("pizza", 2)

	var remote Cart
	_ = remote.AddItem(line("pizza", "12.99"))
	_ = remote.SetQuantity("pizza", 5)
	_ = remote.AddItem(line("burger", "8.99"))

	local.Merge(remote)

	if len(local.Lines) != 2 {
		t.Fatalf("expected 2 lines after merge, got %d", len(local.Lines))
	}
	if local.Lines[0].ItemID != "pizza" || local.Lines[0].Quantity != 5 {
		t.Fatalf("expected pizza qty 5, got %+v", local.Lines[0])
	}
	if local.Lines[1].ItemID != "burger" || local.Lines[1].Quantity != 1 {
		t.Fatalf("expected burger qty 1, got %+v", local.Lines[1])
	}
}

func TestClearDetachesCoupon(t *testing.T) {
	var c Cart
	_ = c.AddItem(line("pizza", "12.99"))
	c.CouponCode = "tenoff"
	c.Clear()
	if !c.IsEmpty() || c.CouponCode != "" {
		t.Fatalf("expected cleared cart, got %+v", c)
	}
}
