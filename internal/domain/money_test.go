package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestToMinorUnits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount string
		want   int64
	}{
		{"1000", 100000},
		{"0.01", 1},
		{"12.5", 1250},
		{"99.99", 9999},
	}

	for _, tt := range tests {
		got, err := ToMinorUnits(decimal.RequireFromString(tt.amount))
		if err != nil {
			t.Fatalf("ToMinorUnits(%s) unexpected error: %v", tt.amount, err)
		}
		if got != tt.want {
			t.Errorf("ToMinorUnits(%s) = %d, want %d", tt.amount, got, tt.want)
		}
	}

	if _, err := ToMinorUnits(decimal.RequireFromString("0.001")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected sub-kobo amount to be rejected, got %v", err)
	}
}

func TestFromMinorUnits(t *testing.T) {
	t.Parallel()

	if got := FromMinorUnits(100000); !got.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("FromMinorUnits(100000) = %s, want 1000", got)
	}
	if got := FromMinorUnits(1); !got.Equal(decimal.RequireFromString("0.01")) {
		t.Fatalf("FromMinorUnits(1) = %s, want 0.01", got)
	}
}

func TestMinorUnitsRoundTrip(t *testing.T) {
	t.Parallel()

	amount := decimal.RequireFromString("4321.09")
	minor, err := ToMinorUnits(amount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back := FromMinorUnits(minor); !back.Equal(amount) {
		t.Fatalf("round trip changed amount: %s -> %d -> %s", amount, minor, back)
	}
}
