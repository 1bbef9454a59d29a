package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRound2HalfUp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"3.497", "3.5"},
		{"3.494", "3.49"},
		{"3.495", "3.5"},
		{"0.005", "0.01"},
		{"12.99", "12.99"},
	}
	for _, tc := range cases {
		got := Round2(decimal.RequireFromString(tc.in))
		if got.String() != tc.want {
			t.Fatalf("Round2(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestToMinorUnits(t *testing.T) {
	got, err := ToMinorUnits(decimal.RequireFromString("34.97"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3497 {
		t.Fatalf("expected 3497 pence, got %d", got)
	}
}

func TestToMinorUnitsRejectsNegative(t *testing.T) {
	if _, err := ToMinorUnits(decimal.RequireFromString("-1")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestToMinorUnitsRejectsSubPenny(t *testing.T) {
	if _, err := ToMinorUnits(decimal.RequireFromString("1.005")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestRound2ThenMinorUnitsRoundTrips(t *testing.T) {
	for _, raw := range []string{"0", "0.004", "1.005", "12.994", "9999.999"} {
		v := decimal.RequireFromString(raw)
		minor, err := ToMinorUnits(Round2(v))
		if err != nil {
			t.Fatalf("round-trip %s: %v", raw, err)
		}
		if minor < 0 {
			t.Fatalf("round-trip %s produced negative minor units %d", raw, minor)
		}
	}
}

func TestFromMinorUnits(t *testing.T) {
	if got := FromMinorUnits(3497); got.String() != "34.97" {
		t.Fatalf("expected 34.97, got %s", got)
	}
}

func TestLineTotalRoundsPerStep(t *testing.T) {
	// 3 × 1.333 = 3.999 → 4.00, not 3.999 carried forward.
	got := LineTotal(decimal.RequireFromString("1.333"), 3)
	if got.String() != "4" {
		t.Fatalf("expected 4, got %s", got)
	}
}
