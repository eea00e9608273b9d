package service

import (
	"errors"
	"log"
	"time"

	"komisi/internal/commission"
	"komisi/internal/domain"
	"komisi/internal/models"

	"github.com/google/uuid"
)

var (
	ErrNothingToPay = errors.New("no commission awaiting payout")
	ErrBelowMinimum = errors.New("available balance below minimum payout amount")
)

// PayoutStore persists payout rows and finds ones that still need settlement.
type PayoutStore interface {
	Create(p *models.Payout) error
	Update(p *models.Payout) error
	FirstUnsettledByAffiliate(affiliateID uint) (*models.Payout, error)
}

// EntryLister reads the ledger entries relevant to settlement.
type EntryLister interface {
	ListPostedByAffiliate(affiliateID uint) ([]models.CommissionEntry, error)
	ListByPayoutRef(payoutRef string) ([]models.CommissionEntry, error)
}

// WalletSettler releases the pending hold once a payout completes.
type WalletSettler interface {
	ClearPending(affiliateID uint, amount int64) error
}

// SettingSource reads operator-tunable numeric settings.
type SettingSource interface {
	GetInt64(key string, fallback int64) int64
}

// PayoutService flips POSTED entries to PAID_OUT, one atomic flip per entry,
// and records the payout. The actual money movement (bank transfer, e-wallet)
// is an external concern; this service only settles the ledger side.
type PayoutService struct {
	payouts  PayoutStore
	entries  EntryLister
	settings SettingSource
	wallets  WalletSettler
	ledger   *commission.LedgerWriter
}

func NewPayoutService(
	payouts PayoutStore,
	entries EntryLister,
	settings SettingSource,
	wallets WalletSettler,
	ledger *commission.LedgerWriter,
) *PayoutService {
	return &PayoutService{
		payouts:  payouts,
		entries:  entries,
		settings: settings,
		wallets:  wallets,
		ledger:   ledger,
	}
}

// Initiate pays out every POSTED entry for the affiliate. A payout left
// PENDING or FAILED by an earlier crash is resumed under its original ref
// before any new payout may be opened — each entry flip is idempotent, so
// re-driving settlement converges and entries flipped during the failed run
// are never stranded.
func (s *PayoutService) Initiate(affiliateID uint) (*models.Payout, error) {
	unsettled, err := s.payouts.FirstUnsettledByAffiliate(affiliateID)
	if err != nil {
		return nil, err
	}
	if unsettled != nil {
		log.Printf("[payout] resuming unsettled payout %s for affiliate %d", unsettled.PayoutRef, affiliateID)
		return s.settle(unsettled)
	}
	posted, err := s.entries.ListPostedByAffiliate(affiliateID)
	if err != nil {
		return nil, err
	}
	if len(posted) == 0 {
		return nil, ErrNothingToPay
	}
	var total int64
	for i := range posted {
		total += posted[i].Amount
	}
	if min := s.settings.GetInt64(domain.SettingMinPayoutIDR, 50000); total < min {
		return nil, ErrBelowMinimum
	}
	payout := &models.Payout{
		AffiliateProfileID: affiliateID,
		PayoutRef:          uuid.NewString(),
		Amount:             total,
		EntryCount:         len(posted),
		Status:             domain.PayoutPending,
	}
	if err := s.payouts.Create(payout); err != nil {
		return nil, err
	}
	return s.settle(payout)
}

// settle drives every remaining POSTED entry into the payout, then finalizes
// amount and count from the entries actually flipped under its ref. Safe to
// re-run after a partial failure: flips are idempotent, already-flipped
// entries are recounted rather than re-debited, and commission posted since
// the failed run rides along into the resumed payout.
func (s *PayoutService) settle(payout *models.Payout) (*models.Payout, error) {
	posted, err := s.entries.ListPostedByAffiliate(payout.AffiliateProfileID)
	if err != nil {
		return payout, err
	}
	for i := range posted {
		if _, err := s.ledger.MarkPaidOut(posted[i].TransactionRef, payout.PayoutRef); err != nil {
			log.Printf("[payout] %s: flip failed for entry %s: %v", payout.PayoutRef, posted[i].TransactionRef, err)
			payout.Status = domain.PayoutFailed
			_ = s.payouts.Update(payout)
			return payout, err
		}
	}
	flipped, err := s.entries.ListByPayoutRef(payout.PayoutRef)
	if err != nil {
		return payout, err
	}
	var total int64
	for i := range flipped {
		total += flipped[i].Amount
	}
	now := time.Now()
	payout.Amount = total
	payout.EntryCount = len(flipped)
	payout.Status = domain.PayoutCompleted
	payout.CompletedAt = &now
	if err := s.payouts.Update(payout); err != nil {
		return payout, err
	}
	if err := s.wallets.ClearPending(payout.AffiliateProfileID, total); err != nil {
		log.Printf("[payout] %s: pending release failed: %v (wallet rebuild corrects this)", payout.PayoutRef, err)
	}
	return payout, nil
}
