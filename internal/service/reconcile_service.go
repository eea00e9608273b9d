package service

import (
	"log"
	"time"

	"komisi/internal/commission"
	"komisi/internal/models"
)

// OrderSource looks up orders for replay.
type OrderSource interface {
	GetByOrderRef(ref string) (*models.Order, error)
}

// WalletRebuilder re-derives a wallet projection from the ledger.
type WalletRebuilder interface {
	Rebuild(affiliateID uint) (*models.Wallet, error)
}

// AffiliateDirectory enumerates and resolves affiliate profiles.
type AffiliateDirectory interface {
	ProfileByID(id uint) (*models.AffiliateProfile, error)
	List(limit, offset int) ([]models.AffiliateProfile, error)
}

// RepairResult summarizes one explicit repair pass. Repairs only ever replay
// the idempotent posting path or rebuild the wallet projection from the ledger;
// anything needing human judgment is left in Skipped.
type RepairResult struct {
	Report   *commission.ReconciliationReport `json:"report"`
	Reposted int                              `json:"reposted"`
	Rebuilt  bool                             `json:"rebuilt"`
	Skipped  []commission.Discrepancy         `json:"skipped"`
}

// ReconcileService runs the auditor over affiliates and, only when explicitly
// invoked, repairs the classes of discrepancy that have a mechanical fix.
type ReconcileService struct {
	reconciler *commission.Reconciler
	engine     *commission.Engine
	orders     OrderSource
	wallets    WalletRebuilder
	affiliates AffiliateDirectory
}

func NewReconcileService(
	reconciler *commission.Reconciler,
	engine *commission.Engine,
	orders OrderSource,
	wallets WalletRebuilder,
	affiliates AffiliateDirectory,
) *ReconcileService {
	return &ReconcileService{
		reconciler: reconciler,
		engine:     engine,
		orders:     orders,
		wallets:    wallets,
		affiliates: affiliates,
	}
}

func (s *ReconcileService) Run(affiliateID uint, asOf time.Time) (*commission.ReconciliationReport, error) {
	return s.reconciler.Reconcile(affiliateID, asOf)
}

// RunAll reconciles every affiliate and returns the reports that contain
// discrepancies.
func (s *ReconcileService) RunAll(asOf time.Time) ([]*commission.ReconciliationReport, error) {
	var dirty []*commission.ReconciliationReport
	const pageSize = 200
	for offset := 0; ; offset += pageSize {
		profiles, err := s.affiliates.List(pageSize, offset)
		if err != nil {
			return dirty, err
		}
		if len(profiles) == 0 {
			return dirty, nil
		}
		for i := range profiles {
			report, err := s.reconciler.Reconcile(profiles[i].ID, asOf)
			if err != nil {
				return dirty, err
			}
			if !report.Clean() {
				dirty = append(dirty, report)
			}
		}
	}
}

// Repair fixes what can be fixed mechanically: missing entries are replayed
// through the engine's idempotent posting path, and balance drift is resolved
// by rebuilding the wallet projection from the ledger. Amount mismatches and
// orphan entries are surfaced, never auto-corrected — those need a human to
// decide which number is right.
func (s *ReconcileService) Repair(affiliateID uint, asOf time.Time) (*RepairResult, error) {
	report, err := s.reconciler.Reconcile(affiliateID, asOf)
	if err != nil {
		return nil, err
	}
	result := &RepairResult{Report: report}
	needRebuild := false
	for _, d := range report.Discrepancies {
		switch d.Type {
		case commission.DiscrepancyMissingEntry:
			posted, err := s.repost(d.TransactionRef)
			if err != nil {
				log.Printf("[reconcile] repost of %s failed: %v", d.TransactionRef, err)
				result.Skipped = append(result.Skipped, d)
				continue
			}
			if !posted {
				// The engine declined to post (no resolvable attribution on
				// replay); claiming a repost here would leave the ledger dirty
				// on every subsequent run while reporting it fixed.
				log.Printf("[reconcile] order %s earns no commission on replay, leaving for review", d.TransactionRef)
				result.Skipped = append(result.Skipped, d)
				continue
			}
			result.Reposted++
		case commission.DiscrepancyBalanceDrift:
			needRebuild = true
		default:
			result.Skipped = append(result.Skipped, d)
		}
	}
	if needRebuild {
		if _, err := s.wallets.Rebuild(affiliateID); err != nil {
			return result, err
		}
		result.Rebuilt = true
	}
	return result, nil
}

// repost replays one order through the posting path. Returns false when the
// engine legitimately posts nothing for it.
func (s *ReconcileService) repost(orderRef string) (bool, error) {
	order, err := s.orders.GetByOrderRef(orderRef)
	if err != nil {
		return false, err
	}
	if order == nil {
		return false, commission.ErrEntryNotFound
	}
	entry, err := s.engine.ProcessOrder(order)
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}

// AffiliateByID is a small helper for handlers that need to verify a profile
// exists before reconciling it.
func (s *ReconcileService) AffiliateByID(id uint) (*models.AffiliateProfile, error) {
	return s.affiliates.ProfileByID(id)
}
