package commission

import (
	"fmt"
	"math"

	"komisi/internal/domain"
)

// Compute maps a gross order amount and a validated rate policy to the
// commission owed, in whole rupiah. Pure; no lookups, no side effects.
//
// PERCENTAGE: round(gross * rate / 100), half-up to the nearest rupiah, and the
// result may never exceed gross — a rate accidentally stored as a raw currency
// amount (e.g. 449000 instead of 20) trips this instead of paying out more than
// the sale. FLAT: the configured amount, independent of gross.
func Compute(gross int64, policy RatePolicy) (int64, error) {
	switch policy.Type {
	case domain.CommissionPercentage:
		amount := roundHalfUp(float64(gross) * policy.Value / 100)
		if amount < 0 {
			return 0, &InvariantViolation{
				Reason: fmt.Sprintf("computed commission %d is negative (gross=%d rate=%.2f%%)", amount, gross, policy.Value),
			}
		}
		if amount > gross {
			return 0, &InvariantViolation{
				Reason: fmt.Sprintf("computed commission %d exceeds gross %d (rate=%.2f%%, misconfigured as currency amount?)", amount, gross, policy.Value),
			}
		}
		return amount, nil
	case domain.CommissionFlat:
		amount := int64(policy.Value)
		if amount < 0 {
			return 0, &InvariantViolation{
				Reason: fmt.Sprintf("flat commission %d is negative", amount),
			}
		}
		return amount, nil
	default:
		return 0, &InvariantViolation{
			Reason: fmt.Sprintf("unvalidated rate policy type %q", policy.Type),
		}
	}
}

func roundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}
