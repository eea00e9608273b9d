package commission

import (
	"errors"
	"fmt"
)

// ErrDuplicateEntry signals that a commission entry already exists for the
// transaction. Callers treat it as success; the ledger returns the existing
// entry alongside it where possible.
var ErrDuplicateEntry = errors.New("commission entry already posted for transaction")

// ErrOrderNotSuccess rejects commission processing for any order that has not
// reached SUCCESS.
var ErrOrderNotSuccess = errors.New("commission is only computable for SUCCESS orders")

// ErrEntryPaidOut rejects a reversal of an entry that has already been paid out.
var ErrEntryPaidOut = errors.New("commission entry already paid out")

// ErrEntryNotFound is returned by ledger transitions on an unknown transaction ref.
var ErrEntryNotFound = errors.New("commission entry not found")

// ConfigurationError marks a malformed or out-of-range commission policy on a
// product. The order is parked for manual resolution, never dropped.
type ConfigurationError struct {
	ProductID uint
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("commission policy invalid for product %d: %s", e.ProductID, e.Reason)
}

// InvariantViolation marks a computed commission that breaks a hard rule
// (negative, or a percentage commission exceeding the order gross). Fatal for
// that order; the commission stays unposted and the order is parked.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return "commission invariant violated: " + e.Reason
}

// PersistenceError wraps a transient storage failure. Callers retry with the
// same order ref; the idempotent posting path makes that safe.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("commission %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
