package commission

import (
	"errors"
	"sync"
	"testing"

	"komisi/internal/domain"
	"komisi/internal/models"
)

func TestLedgerWriter(t *testing.T) {
	affiliate := &models.AffiliateProfile{ID: 7, UserID: 70, Active: true}
	policy := RatePolicy{Type: domain.CommissionPercentage, Value: 20}
	order := &models.Order{OrderRef: "ORD-449", BuyerID: 100, GrossAmount: 449000, Status: domain.OrderSuccess}

	t.Run("Given a fresh order When posting Then the entry is created and the wallet credited", func(t *testing.T) {
		store := newMockLedgerStore()
		writer := NewLedgerWriter(store)
		entry, err := writer.Post(order, affiliate, 89800, policy)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if entry.Status != domain.EntryPosted || entry.Amount != 89800 {
			t.Errorf("got %+v, want POSTED 89800", entry)
		}
		if entry.RateType != domain.CommissionPercentage || entry.RateValue != 20 {
			t.Errorf("entry must snapshot the policy, got %s %.1f", entry.RateType, entry.RateValue)
		}
		if got := store.balance(7); got != 89800 {
			t.Errorf("wallet balance = %d, want 89800", got)
		}
	})

	t.Run("Given an already posted order When posting again Then the existing entry is returned as success", func(t *testing.T) {
		store := newMockLedgerStore()
		writer := NewLedgerWriter(store)
		first, err := writer.Post(order, affiliate, 89800, policy)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := writer.Post(order, affiliate, 89800, policy)
		if err != nil {
			t.Fatalf("duplicate post must be success, got %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("duplicate post returned entry %d, want existing %d", second.ID, first.ID)
		}
		if store.entryCount() != 1 {
			t.Errorf("entry count = %d, want 1", store.entryCount())
		}
		if got := store.balance(7); got != 89800 {
			t.Errorf("wallet balance = %d, want 89800 (credited once)", got)
		}
	})

	t.Run("Given concurrent deliveries of one order When posting Then exactly one entry exists", func(t *testing.T) {
		store := newMockLedgerStore()
		writer := NewLedgerWriter(store)
		const workers = 16
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := writer.Post(order, affiliate, 89800, policy); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("concurrent post failed: %v", err)
		}
		if store.entryCount() != 1 {
			t.Errorf("entry count = %d, want exactly 1", store.entryCount())
		}
		if got := store.balance(7); got != 89800 {
			t.Errorf("wallet balance = %d, want 89800 (credited exactly once)", got)
		}
	})

	t.Run("Given a posted entry When reversing Then the row stays with status REVERSED and the wallet is debited", func(t *testing.T) {
		store := newMockLedgerStore()
		writer := NewLedgerWriter(store)
		if _, err := writer.Post(order, affiliate, 89800, policy); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		entry, err := writer.Reverse(order.OrderRef, "buyer refunded")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if entry.Status != domain.EntryReversed || entry.ReversalReason != "buyer refunded" {
			t.Errorf("got %+v, want REVERSED with reason", entry)
		}
		if store.entryCount() != 1 {
			t.Error("reversal must keep the row, not delete it")
		}
		if got := store.balance(7); got != 0 {
			t.Errorf("wallet balance = %d, want 0 after reversal", got)
		}
	})

	t.Run("Given a reversed entry When reversing again Then it is a no-op", func(t *testing.T) {
		store := newMockLedgerStore()
		writer := NewLedgerWriter(store)
		if _, err := writer.Post(order, affiliate, 89800, policy); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := writer.Reverse(order.OrderRef, "refund"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		entry, err := writer.Reverse(order.OrderRef, "refund again")
		if err != nil {
			t.Fatalf("second reversal must be a no-op, got %v", err)
		}
		if entry.Status != domain.EntryReversed {
			t.Errorf("status = %s, want REVERSED", entry.Status)
		}
		if got := store.balance(7); got != 0 {
			t.Errorf("wallet balance = %d, want 0 (debited once)", got)
		}
	})

	t.Run("Given an unknown ref When reversing Then ErrEntryNotFound is returned", func(t *testing.T) {
		writer := NewLedgerWriter(newMockLedgerStore())
		_, err := writer.Reverse("ORD-MISSING", "refund")
		if !errors.Is(err, ErrEntryNotFound) {
			t.Fatalf("expected ErrEntryNotFound, got %v", err)
		}
	})

	t.Run("Given a paid out entry When reversing Then ErrEntryPaidOut is returned", func(t *testing.T) {
		store := newMockLedgerStore()
		writer := NewLedgerWriter(store)
		if _, err := writer.Post(order, affiliate, 89800, policy); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := writer.MarkPaidOut(order.OrderRef, "payout-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err := writer.Reverse(order.OrderRef, "refund")
		if !errors.Is(err, ErrEntryPaidOut) {
			t.Fatalf("expected ErrEntryPaidOut, got %v", err)
		}
	})

	t.Run("Given a posted entry When marking paid out twice with the same ref Then it is a no-op", func(t *testing.T) {
		store := newMockLedgerStore()
		writer := NewLedgerWriter(store)
		if _, err := writer.Post(order, affiliate, 89800, policy); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		first, err := writer.MarkPaidOut(order.OrderRef, "payout-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.Status != domain.EntryPaidOut || first.PayoutRef != "payout-1" {
			t.Errorf("got %+v, want PAID_OUT under payout-1", first)
		}
		second, err := writer.MarkPaidOut(order.OrderRef, "payout-1")
		if err != nil {
			t.Fatalf("re-settling the same payout must converge, got %v", err)
		}
		if second.Status != domain.EntryPaidOut {
			t.Errorf("status = %s, want PAID_OUT", second.Status)
		}
		if got := store.balance(7); got != 0 {
			t.Errorf("wallet balance = %d, want 0 (debited once)", got)
		}
	})

	t.Run("Given a storage failure When posting Then a persistence error is returned", func(t *testing.T) {
		store := newMockLedgerStore()
		store.createErr = errors.New("deadlock")
		writer := NewLedgerWriter(store)
		_, err := writer.Post(order, affiliate, 89800, policy)
		var perr *PersistenceError
		if !errors.As(err, &perr) {
			t.Fatalf("expected PersistenceError, got %v", err)
		}
	})
}
