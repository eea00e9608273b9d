package commission

import (
	"errors"
	"fmt"
	"time"

	"komisi/internal/domain"
	"komisi/internal/models"
)

// Discrepancy types reported by the reconciler.
const (
	DiscrepancyMissingEntry   = "MISSING_ENTRY"   // qualifying order has no ledger entry
	DiscrepancyAmountMismatch = "AMOUNT_MISMATCH" // ledger amount differs from recomputed amount
	DiscrepancyOrphanEntry    = "ORPHAN_ENTRY"    // ledger entry with no qualifying order
	DiscrepancyReversedEntry  = "REVERSED_ENTRY"  // entry reversed but order still SUCCESS
	DiscrepancyBalanceDrift   = "BALANCE_DRIFT"   // wallet projection differs from ledger sum
	DiscrepancyRateUnresolved = "RATE_UNRESOLVED" // expected amount uncomputable from catalog
)

type Discrepancy struct {
	Type           string `json:"type"`
	TransactionRef string `json:"transaction_ref,omitempty"`
	Expected       int64  `json:"expected"`
	Actual         int64  `json:"actual"`
	Delta          int64  `json:"delta"`
	Detail         string `json:"detail,omitempty"`
}

// ReconciliationReport diffs independently recomputed totals against ledger
// and wallet state. It is evidence for human judgment — the reconciler never
// corrects anything itself.
type ReconciliationReport struct {
	AffiliateProfileID uint          `json:"affiliate_profile_id"`
	AsOf               time.Time     `json:"as_of"`
	ExpectedTotal      int64         `json:"expected_total"`
	LedgerTotal        int64         `json:"ledger_total"`
	WalletAvailable    int64         `json:"wallet_available"`
	Tolerance          int64         `json:"tolerance"`
	Discrepancies      []Discrepancy `json:"discrepancies"`
}

func (r *ReconciliationReport) Clean() bool { return len(r.Discrepancies) == 0 }

// ReconciliationSource provides the read-side data. Implementations resolve
// attribution the same way posting does (including the legacy translation
// table) so expected and actual are computed over the same order set.
type ReconciliationSource interface {
	// SuccessOrders returns orders attributed to the affiliate that reached
	// SUCCESS at or before asOf.
	SuccessOrders(affiliateID uint, asOf time.Time) ([]models.Order, error)
	// Entries returns all commission entries for the affiliate created at or
	// before asOf, REVERSED ones included.
	Entries(affiliateID uint, asOf time.Time) ([]models.CommissionEntry, error)
	// Wallet returns (nil, nil) when the affiliate has no wallet row yet.
	Wallet(affiliateID uint) (*models.Wallet, error)
}

// Reconciler recomputes expected commission per qualifying transaction from
// the current catalog rates, independent of stored entries, and reports every
// difference beyond the rounding tolerance. Writers may post concurrently; the
// snapshot is eventually consistent and callers re-run rather than error.
type Reconciler struct {
	source    ReconciliationSource
	rates     *RateResolver
	tolerance int64
}

func NewReconciler(source ReconciliationSource, rates *RateResolver, tolerance int64) *Reconciler {
	if tolerance < 0 {
		tolerance = 0
	}
	return &Reconciler{source: source, rates: rates, tolerance: tolerance}
}

func (r *Reconciler) Reconcile(affiliateID uint, asOf time.Time) (*ReconciliationReport, error) {
	orders, err := r.source.SuccessOrders(affiliateID, asOf)
	if err != nil {
		return nil, &PersistenceError{Op: "reconcile orders", Err: err}
	}
	entries, err := r.source.Entries(affiliateID, asOf)
	if err != nil {
		return nil, &PersistenceError{Op: "reconcile entries", Err: err}
	}
	wallet, err := r.source.Wallet(affiliateID)
	if err != nil {
		return nil, &PersistenceError{Op: "reconcile wallet", Err: err}
	}

	report := &ReconciliationReport{
		AffiliateProfileID: affiliateID,
		AsOf:               asOf,
		Tolerance:          r.tolerance,
	}

	byRef := make(map[string]*models.CommissionEntry, len(entries))
	for i := range entries {
		byRef[entries[i].TransactionRef] = &entries[i]
	}

	seen := make(map[string]bool, len(orders))
	for i := range orders {
		order := &orders[i]
		seen[order.OrderRef] = true

		expected, expectErr := r.expectedFor(order)
		if expectErr != nil {
			var perr *PersistenceError
			if errors.As(expectErr, &perr) {
				return nil, expectErr
			}
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				Type:           DiscrepancyRateUnresolved,
				TransactionRef: order.OrderRef,
				Detail:         expectErr.Error(),
			})
			continue
		}
		report.ExpectedTotal += expected

		entry, ok := byRef[order.OrderRef]
		if !ok {
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				Type:           DiscrepancyMissingEntry,
				TransactionRef: order.OrderRef,
				Expected:       expected,
				Delta:          -expected,
				Detail:         "qualifying order has no ledger entry",
			})
			continue
		}
		if entry.Status == domain.EntryReversed {
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				Type:           DiscrepancyReversedEntry,
				TransactionRef: order.OrderRef,
				Expected:       expected,
				Delta:          -expected,
				Detail:         "entry is REVERSED but the order is still SUCCESS",
			})
			continue
		}
		if delta := entry.Amount - expected; abs(delta) > r.tolerance {
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				Type:           DiscrepancyAmountMismatch,
				TransactionRef: order.OrderRef,
				Expected:       expected,
				Actual:         entry.Amount,
				Delta:          delta,
			})
		}
	}

	var availableExpected int64
	for i := range entries {
		entry := &entries[i]
		if entry.Status == domain.EntryReversed {
			continue
		}
		report.LedgerTotal += entry.Amount
		if entry.Status == domain.EntryPosted {
			availableExpected += entry.Amount
		}
		if !seen[entry.TransactionRef] {
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				Type:           DiscrepancyOrphanEntry,
				TransactionRef: entry.TransactionRef,
				Actual:         entry.Amount,
				Delta:          entry.Amount,
				Detail:         "ledger entry has no qualifying SUCCESS order",
			})
		}
	}

	if wallet != nil {
		report.WalletAvailable = wallet.Available
	}
	if delta := report.WalletAvailable - availableExpected; abs(delta) > r.tolerance {
		report.Discrepancies = append(report.Discrepancies, Discrepancy{
			Type:     DiscrepancyBalanceDrift,
			Expected: availableExpected,
			Actual:   report.WalletAvailable,
			Delta:    delta,
			Detail:   "wallet available balance differs from ledger sum of POSTED entries",
		})
	}
	return report, nil
}

// expectedFor recomputes the commission for one order from scratch. A
// configuration or invariant failure means the expected amount is unknowable
// until an operator fixes the catalog, which is itself worth reporting.
func (r *Reconciler) expectedFor(order *models.Order) (int64, error) {
	policy, err := r.rates.Resolve(order.ProductID)
	if err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			return 0, fmt.Errorf("rate unresolvable: %s", cfgErr.Reason)
		}
		return 0, err
	}
	amount, err := Compute(order.GrossAmount, policy)
	if err != nil {
		return 0, fmt.Errorf("expected amount uncomputable: %v", err)
	}
	return amount, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
