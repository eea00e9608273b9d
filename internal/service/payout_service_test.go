package service

import (
	"errors"
	"testing"

	"komisi/internal/commission"
	"komisi/internal/domain"
)

func newPayoutFixture(minPayout int64) (*PayoutService, *memLedger, *stubPayoutStore, *stubWalletSettler) {
	ledger := newMemLedger()
	payouts := &stubPayoutStore{}
	settler := &stubWalletSettler{}
	svc := NewPayoutService(payouts, ledger, &stubSettings{minPayout: minPayout}, settler, commission.NewLedgerWriter(ledger))
	return svc, ledger, payouts, settler
}

func TestPayoutInitiate(t *testing.T) {
	t.Run("Given posted entries above the minimum When initiating Then every entry is flipped under one completed payout", func(t *testing.T) {
		svc, ledger, payouts, settler := newPayoutFixture(50000)
		ledger.addPosted(1, "ord-1", 89800)
		ledger.addPosted(1, "ord-2", 325000)

		payout, err := svc.Initiate(1)
		if err != nil {
			t.Fatalf("Initiate() error = %v", err)
		}
		if payout.Status != domain.PayoutCompleted {
			t.Errorf("status = %q, want %q", payout.Status, domain.PayoutCompleted)
		}
		if payout.Amount != 414800 || payout.EntryCount != 2 {
			t.Errorf("amount = %d count = %d, want 414800 and 2", payout.Amount, payout.EntryCount)
		}
		for _, ref := range []string{"ord-1", "ord-2"} {
			if got := ledger.statusOf(ref); got != domain.EntryPaidOut {
				t.Errorf("entry %s status = %q, want %q", ref, got, domain.EntryPaidOut)
			}
			if got := ledger.payoutRefOf(ref); got != payout.PayoutRef {
				t.Errorf("entry %s payout ref = %q, want %q", ref, got, payout.PayoutRef)
			}
		}
		if payouts.creates != 1 {
			t.Errorf("payout rows created = %d, want 1", payouts.creates)
		}
		if len(settler.cleared) != 1 || settler.cleared[0] != 414800 {
			t.Errorf("pending cleared = %v, want [414800]", settler.cleared)
		}
	})

	t.Run("Given no posted entries When initiating Then ErrNothingToPay", func(t *testing.T) {
		svc, _, _, _ := newPayoutFixture(50000)
		if _, err := svc.Initiate(1); !errors.Is(err, ErrNothingToPay) {
			t.Errorf("Initiate() error = %v, want ErrNothingToPay", err)
		}
	})

	t.Run("Given a total below the minimum When initiating Then ErrBelowMinimum and nothing flips", func(t *testing.T) {
		svc, ledger, _, _ := newPayoutFixture(50000)
		ledger.addPosted(1, "ord-1", 25000)

		if _, err := svc.Initiate(1); !errors.Is(err, ErrBelowMinimum) {
			t.Errorf("Initiate() error = %v, want ErrBelowMinimum", err)
		}
		if got := ledger.statusOf("ord-1"); got != domain.EntryPosted {
			t.Errorf("entry status = %q, want %q", got, domain.EntryPosted)
		}
	})

	t.Run("Given a payout that failed mid-flip When initiating again Then the same payout resumes and completes", func(t *testing.T) {
		svc, ledger, payouts, settler := newPayoutFixture(50000)
		ledger.addPosted(1, "ord-1", 89800)
		ledger.addPosted(1, "ord-2", 325000)
		ledger.addPosted(1, "ord-3", 50000)
		ledger.failFlipRef = "ord-2"
		ledger.failFlipErr = errors.New("connection reset")

		first, err := svc.Initiate(1)
		if err == nil {
			t.Fatal("Initiate() succeeded, want flip failure")
		}
		if first.Status != domain.PayoutFailed {
			t.Errorf("failed run status = %q, want %q", first.Status, domain.PayoutFailed)
		}
		if got := ledger.statusOf("ord-1"); got != domain.EntryPaidOut {
			t.Fatalf("entry ord-1 status = %q, want flipped before the failure", got)
		}

		// The stranded entry flipped under the failed ref must not be lost: the
		// next initiation resumes that payout instead of opening a second one.
		ledger.failFlipErr = nil
		resumed, err := svc.Initiate(1)
		if err != nil {
			t.Fatalf("Initiate() on resume error = %v", err)
		}
		if resumed.PayoutRef != first.PayoutRef {
			t.Errorf("resumed payout ref = %q, want the original %q", resumed.PayoutRef, first.PayoutRef)
		}
		if payouts.creates != 1 {
			t.Errorf("payout rows created = %d, want 1 (resume must not open a new payout)", payouts.creates)
		}
		if resumed.Status != domain.PayoutCompleted {
			t.Errorf("resumed status = %q, want %q", resumed.Status, domain.PayoutCompleted)
		}
		if resumed.Amount != 464800 || resumed.EntryCount != 3 {
			t.Errorf("resumed amount = %d count = %d, want 464800 and 3", resumed.Amount, resumed.EntryCount)
		}
		for _, ref := range []string{"ord-1", "ord-2", "ord-3"} {
			if got := ledger.payoutRefOf(ref); got != first.PayoutRef {
				t.Errorf("entry %s payout ref = %q, want %q", ref, got, first.PayoutRef)
			}
			if got := ledger.statusOf(ref); got != domain.EntryPaidOut {
				t.Errorf("entry %s status = %q, want %q", ref, got, domain.EntryPaidOut)
			}
		}
		if len(settler.cleared) != 1 || settler.cleared[0] != 464800 {
			t.Errorf("pending cleared = %v, want [464800]", settler.cleared)
		}
	})

	t.Run("Given commission posted after the failure When resuming Then it rides along into the same payout", func(t *testing.T) {
		svc, ledger, _, _ := newPayoutFixture(50000)
		ledger.addPosted(1, "ord-1", 89800)
		ledger.failFlipRef = "ord-1"
		ledger.failFlipErr = errors.New("deadlock")

		first, err := svc.Initiate(1)
		if err == nil {
			t.Fatal("Initiate() succeeded, want flip failure")
		}

		ledger.failFlipErr = nil
		ledger.addPosted(1, "ord-2", 325000)
		resumed, err := svc.Initiate(1)
		if err != nil {
			t.Fatalf("Initiate() on resume error = %v", err)
		}
		if resumed.PayoutRef != first.PayoutRef {
			t.Errorf("resumed payout ref = %q, want %q", resumed.PayoutRef, first.PayoutRef)
		}
		if resumed.Amount != 414800 || resumed.EntryCount != 2 {
			t.Errorf("resumed amount = %d count = %d, want 414800 and 2", resumed.Amount, resumed.EntryCount)
		}
	})
}
