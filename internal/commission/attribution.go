package commission

import (
	"log"

	"komisi/internal/models"
)

// AffiliateSource looks up affiliate profiles. Implementations return
// (nil, nil) when no profile matches and an error only on storage failure.
// ProfileByLegacyID resolves through the persisted legacy-ID translation table,
// never by fuzzy matching on names or emails.
type AffiliateSource interface {
	ProfileByID(id uint) (*models.AffiliateProfile, error)
	ProfileByLegacyID(legacyID int64) (*models.AffiliateProfile, error)
}

// AttributionResolver decides which affiliate, if any, is credited for an
// order. It fails softly: orders with missing, orphaned, inactive, or
// self-referential attribution simply earn no commission, with the reason
// logged. The source data is known to be messy (orphaned legacy IDs, duplicate
// accounts), and a hard failure here would block order processing for everyone.
type AttributionResolver struct {
	affiliates AffiliateSource
}

func NewAttributionResolver(affiliates AffiliateSource) *AttributionResolver {
	return &AttributionResolver{affiliates: affiliates}
}

// Resolve returns the credited profile, or (nil, nil) when the order earns no
// commission. An error is returned only on storage failure.
func (r *AttributionResolver) Resolve(order *models.Order) (*models.AffiliateProfile, error) {
	var (
		profile *models.AffiliateProfile
		err     error
	)
	switch {
	case order.AffiliateProfileID != nil:
		profile, err = r.affiliates.ProfileByID(*order.AffiliateProfileID)
		if err != nil {
			return nil, &PersistenceError{Op: "attribution lookup", Err: err}
		}
		if profile == nil {
			log.Printf("[attribution] order %s references missing affiliate profile %d, skipping", order.OrderRef, *order.AffiliateProfileID)
			return nil, nil
		}
	case order.LegacyAffiliateID != nil:
		profile, err = r.affiliates.ProfileByLegacyID(*order.LegacyAffiliateID)
		if err != nil {
			return nil, &PersistenceError{Op: "legacy attribution lookup", Err: err}
		}
		if profile == nil {
			log.Printf("[attribution] order %s carries unmapped legacy affiliate id %d, skipping", order.OrderRef, *order.LegacyAffiliateID)
			return nil, nil
		}
	default:
		return nil, nil
	}
	if !profile.Active {
		log.Printf("[attribution] order %s attributed to inactive affiliate %d, skipping", order.OrderRef, profile.ID)
		return nil, nil
	}
	if profile.UserID == order.BuyerID {
		log.Printf("[attribution] order %s is self-referred by user %d, rejected", order.OrderRef, order.BuyerID)
		return nil, nil
	}
	return profile, nil
}
