package commission

import (
	"errors"
	"testing"

	"komisi/internal/domain"
)

func TestCompute(t *testing.T) {
	t.Run("Given a 20 percent rate When gross is 449000 Then commission is 89800", func(t *testing.T) {
		got, err := Compute(449000, RatePolicy{Type: domain.CommissionPercentage, Value: 20})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 89800 {
			t.Errorf("got %d, want 89800", got)
		}
	})

	t.Run("Given a flat policy When computing Then gross is ignored", func(t *testing.T) {
		got, err := Compute(1000000, RatePolicy{Type: domain.CommissionFlat, Value: 325000})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 325000 {
			t.Errorf("got %d, want 325000", got)
		}
	})

	t.Run("Given a fractional result When computing Then it rounds half up to whole rupiah", func(t *testing.T) {
		// 101 * 12.5% = 12.625 -> 13
		got, err := Compute(101, RatePolicy{Type: domain.CommissionPercentage, Value: 12.5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 13 {
			t.Errorf("got %d, want 13", got)
		}
		// 100 * 12.5% = 12.5 -> 13 (half rounds up, not to even)
		got, err = Compute(100, RatePolicy{Type: domain.CommissionPercentage, Value: 12.5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 13 {
			t.Errorf("got %d, want 13", got)
		}
	})

	t.Run("Given zero gross When computing a percentage Then commission is zero", func(t *testing.T) {
		got, err := Compute(0, RatePolicy{Type: domain.CommissionPercentage, Value: 20})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 0 {
			t.Errorf("got %d, want 0", got)
		}
	})

	t.Run("Given a rate stored as a currency amount When the result exceeds gross Then the invariant trips", func(t *testing.T) {
		_, err := Compute(449000, RatePolicy{Type: domain.CommissionPercentage, Value: 449000})
		var inv *InvariantViolation
		if !errors.As(err, &inv) {
			t.Fatalf("expected InvariantViolation, got %v", err)
		}
	})

	t.Run("Given a negative flat amount When computing Then the invariant trips", func(t *testing.T) {
		_, err := Compute(449000, RatePolicy{Type: domain.CommissionFlat, Value: -500})
		var inv *InvariantViolation
		if !errors.As(err, &inv) {
			t.Fatalf("expected InvariantViolation, got %v", err)
		}
	})

	t.Run("Given an unvalidated policy type When computing Then the invariant trips", func(t *testing.T) {
		_, err := Compute(449000, RatePolicy{Type: "TIERED", Value: 10})
		var inv *InvariantViolation
		if !errors.As(err, &inv) {
			t.Fatalf("expected InvariantViolation, got %v", err)
		}
	})
}
