package commission

import (
	"errors"
	"testing"

	"komisi/internal/domain"
	"komisi/internal/models"
)

func uintPtr(v uint) *uint    { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestAttributionResolver(t *testing.T) {
	active := &models.AffiliateProfile{ID: 7, UserID: 70, Code: "a1b2c3d4", Active: true}
	inactive := &models.AffiliateProfile{ID: 8, UserID: 80, Code: "deadbeef", Active: false}
	source := &mockAffiliateSource{
		byID:     map[uint]*models.AffiliateProfile{7: active, 8: inactive},
		byLegacy: map[int64]*models.AffiliateProfile{812: active},
	}
	resolver := NewAttributionResolver(source)

	order := func(mutate func(*models.Order)) *models.Order {
		o := &models.Order{OrderRef: "ORD-1", BuyerID: 100, Status: domain.OrderSuccess}
		mutate(o)
		return o
	}

	t.Run("Given a direct profile reference When resolving Then the profile is credited", func(t *testing.T) {
		got, err := resolver.Resolve(order(func(o *models.Order) { o.AffiliateProfileID = uintPtr(7) }))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.ID != 7 {
			t.Errorf("got %+v, want profile 7", got)
		}
	})

	t.Run("Given a mapped legacy id When resolving Then the translated profile is credited", func(t *testing.T) {
		got, err := resolver.Resolve(order(func(o *models.Order) { o.LegacyAffiliateID = int64Ptr(812) }))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.ID != 7 {
			t.Errorf("got %+v, want profile 7", got)
		}
	})

	t.Run("Given no attribution When resolving Then no commission is earned", func(t *testing.T) {
		got, err := resolver.Resolve(order(func(o *models.Order) {}))
		if err != nil || got != nil {
			t.Errorf("got (%+v, %v), want (nil, nil)", got, err)
		}
	})

	t.Run("Given an orphaned profile reference When resolving Then the order is skipped softly", func(t *testing.T) {
		got, err := resolver.Resolve(order(func(o *models.Order) { o.AffiliateProfileID = uintPtr(999) }))
		if err != nil || got != nil {
			t.Errorf("got (%+v, %v), want (nil, nil)", got, err)
		}
	})

	t.Run("Given an unmapped legacy id When resolving Then the order is skipped softly", func(t *testing.T) {
		got, err := resolver.Resolve(order(func(o *models.Order) { o.LegacyAffiliateID = int64Ptr(404) }))
		if err != nil || got != nil {
			t.Errorf("got (%+v, %v), want (nil, nil)", got, err)
		}
	})

	t.Run("Given an inactive affiliate When resolving Then the order is skipped softly", func(t *testing.T) {
		got, err := resolver.Resolve(order(func(o *models.Order) { o.AffiliateProfileID = uintPtr(8) }))
		if err != nil || got != nil {
			t.Errorf("got (%+v, %v), want (nil, nil)", got, err)
		}
	})

	t.Run("Given a buyer referring themselves When resolving Then no commission is earned", func(t *testing.T) {
		got, err := resolver.Resolve(order(func(o *models.Order) {
			o.BuyerID = active.UserID
			o.AffiliateProfileID = uintPtr(7)
		}))
		if err != nil || got != nil {
			t.Errorf("got (%+v, %v), want (nil, nil)", got, err)
		}
	})

	t.Run("Given a storage failure When resolving Then a persistence error is returned", func(t *testing.T) {
		broken := NewAttributionResolver(&mockAffiliateSource{err: errors.New("timeout")})
		_, err := broken.Resolve(order(func(o *models.Order) { o.AffiliateProfileID = uintPtr(7) }))
		var perr *PersistenceError
		if !errors.As(err, &perr) {
			t.Fatalf("expected PersistenceError, got %v", err)
		}
	})
}
