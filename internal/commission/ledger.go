package commission

import (
	"errors"
	"log"

	"komisi/internal/domain"
	"komisi/internal/models"
)

// LedgerStore persists commission entries. Implementations must make each
// mutation atomic with its wallet effect: an entry insert and the matching
// wallet credit either both commit or neither does.
type LedgerStore interface {
	// CreateEntry inserts the entry and credits the affiliate's wallet in one
	// storage transaction. Returns ErrDuplicateEntry (possibly wrapped) when an
	// entry for the same transaction ref already exists.
	CreateEntry(entry *models.CommissionEntry) error
	// EntryByTransactionRef returns (nil, nil) when no entry exists.
	EntryByTransactionRef(ref string) (*models.CommissionEntry, error)
	// ReverseEntry flips POSTED -> REVERSED and debits the wallet atomically.
	// Reversing an already-REVERSED entry is a no-op returning the entry.
	// Returns ErrEntryNotFound or ErrEntryPaidOut when the transition is illegal.
	ReverseEntry(ref, reason string) (*models.CommissionEntry, error)
	// MarkPaidOut flips POSTED -> PAID_OUT and debits the available balance
	// atomically. Flipping an entry already attached to the same payout ref is a
	// no-op returning the entry.
	MarkPaidOut(ref, payoutRef string) (*models.CommissionEntry, error)
}

// LedgerWriter posts commission entries idempotently. Retried or concurrently
// delivered order-success events converge on exactly one entry per transaction;
// the unique index on transaction_ref is the final backstop underneath the
// check-then-insert race.
type LedgerWriter struct {
	store LedgerStore
}

func NewLedgerWriter(store LedgerStore) *LedgerWriter {
	return &LedgerWriter{store: store}
}

// Post records one commission entry for the order and credits the affiliate's
// wallet. If an entry already exists for the order it is returned unchanged —
// a duplicate post is success, not an error.
func (w *LedgerWriter) Post(order *models.Order, affiliate *models.AffiliateProfile, amount int64, policy RatePolicy) (*models.CommissionEntry, error) {
	entry := &models.CommissionEntry{
		AffiliateProfileID: affiliate.ID,
		TransactionRef:     order.OrderRef,
		Amount:             amount,
		RateType:           policy.Type,
		RateValue:          policy.Value,
		Status:             domain.EntryPosted,
	}
	err := w.store.CreateEntry(entry)
	if err == nil {
		return entry, nil
	}
	if errors.Is(err, ErrDuplicateEntry) {
		existing, lookupErr := w.store.EntryByTransactionRef(order.OrderRef)
		if lookupErr != nil {
			return nil, &PersistenceError{Op: "duplicate lookup", Err: lookupErr}
		}
		if existing == nil {
			// Lost a race with a concurrent reversal/cleanup; retryable.
			return nil, &PersistenceError{Op: "duplicate lookup", Err: ErrEntryNotFound}
		}
		log.Printf("[ledger] duplicate post for %s, returning existing entry %d", order.OrderRef, existing.ID)
		return existing, nil
	}
	return nil, &PersistenceError{Op: "post", Err: err}
}

// Reverse soft-reverses the entry for a refunded transaction. The row is kept
// with status REVERSED and its amount is subtracted from the wallet in the same
// storage transaction. Already-reversed entries are a no-op.
func (w *LedgerWriter) Reverse(transactionRef, reason string) (*models.CommissionEntry, error) {
	entry, err := w.store.ReverseEntry(transactionRef, reason)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) || errors.Is(err, ErrEntryPaidOut) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "reverse", Err: err}
	}
	return entry, nil
}

// MarkPaidOut flips one entry to PAID_OUT for the given payout, idempotently.
func (w *LedgerWriter) MarkPaidOut(transactionRef, payoutRef string) (*models.CommissionEntry, error) {
	entry, err := w.store.MarkPaidOut(transactionRef, payoutRef)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "mark paid out", Err: err}
	}
	return entry, nil
}
