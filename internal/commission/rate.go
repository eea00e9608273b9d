package commission

import (
	"fmt"
	"log"

	"komisi/internal/domain"
	"komisi/internal/models"
)

// RatePolicy is the validated commission policy for one product. Value is a
// percentage in [0,100] for PERCENTAGE, or a flat rupiah amount for FLAT.
type RatePolicy struct {
	Type  string
	Value float64
	// Defaulted marks a percentage rate equal to the platform-wide placeholder
	// default. Those products were most likely never configured by an admin, so
	// the flag stays visible all the way into the ledger snapshot.
	Defaulted bool
}

// ProductSource looks up sellable items. Implementations return (nil, nil) when
// the product does not exist and an error only on storage failure.
type ProductSource interface {
	ProductByID(id uint) (*models.Product, error)
}

// RateResolver turns a product's stored commission configuration into a
// validated RatePolicy. It always reads the current value; nothing is cached
// across transaction boundaries, so admin rate changes take effect immediately.
type RateResolver struct {
	products        ProductSource
	placeholderRate float64
}

func NewRateResolver(products ProductSource, placeholderRate float64) *RateResolver {
	return &RateResolver{products: products, placeholderRate: placeholderRate}
}

func (r *RateResolver) Resolve(productID uint) (RatePolicy, error) {
	p, err := r.products.ProductByID(productID)
	if err != nil {
		return RatePolicy{}, &PersistenceError{Op: "rate lookup", Err: err}
	}
	if p == nil {
		return RatePolicy{}, &ConfigurationError{ProductID: productID, Reason: "product not found"}
	}
	if !p.Active {
		return RatePolicy{}, &ConfigurationError{ProductID: p.ID, Reason: "product is inactive"}
	}
	return NewRatePolicy(p, r.placeholderRate)
}

// NewRatePolicy validates a product's raw commission fields. A percentage rate
// matching placeholderRate is allowed through but flagged and logged, since the
// platform's 30% default on unconfigured products has historically produced
// wrong commissions that only surfaced in after-the-fact audits.
func NewRatePolicy(p *models.Product, placeholderRate float64) (RatePolicy, error) {
	switch p.CommissionType {
	case domain.CommissionPercentage:
		if p.CommissionRate < 0 || p.CommissionRate > 100 {
			return RatePolicy{}, &ConfigurationError{
				ProductID: p.ID,
				Reason:    fmt.Sprintf("percentage rate %.2f out of range [0,100]", p.CommissionRate),
			}
		}
		policy := RatePolicy{Type: domain.CommissionPercentage, Value: p.CommissionRate}
		if placeholderRate > 0 && p.CommissionRate == placeholderRate {
			policy.Defaulted = true
			log.Printf("[rate] product %d %q still carries the placeholder %.1f%% rate; flag for admin review", p.ID, p.Name, placeholderRate)
		}
		return policy, nil
	case domain.CommissionFlat:
		if p.CommissionRate < 0 {
			return RatePolicy{}, &ConfigurationError{
				ProductID: p.ID,
				Reason:    fmt.Sprintf("flat amount %.2f is negative", p.CommissionRate),
			}
		}
		return RatePolicy{Type: domain.CommissionFlat, Value: p.CommissionRate}, nil
	case "":
		return RatePolicy{}, &ConfigurationError{ProductID: p.ID, Reason: "commission type not set"}
	default:
		return RatePolicy{}, &ConfigurationError{
			ProductID: p.ID,
			Reason:    fmt.Sprintf("unknown commission type %q", p.CommissionType),
		}
	}
}
