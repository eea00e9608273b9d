package repository

import (
	"errors"
	"fmt"
	"time"

	"komisi/internal/commission"
	"komisi/internal/domain"
	"komisi/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionRepository is the storage side of the ledger. Every mutation that
// touches an entry also applies its wallet effect inside the same database
// transaction, so the ledger and the balance projection can never half-apply.
// It implements commission.LedgerStore and commission.ReconciliationSource.
type CommissionRepository struct {
	db *gorm.DB
}

func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

// CreateEntry inserts the entry and credits the wallet atomically. The unique
// index on transaction_ref turns a concurrent double-post into a duplicate-key
// failure, reported as commission.ErrDuplicateEntry.
func (r *CommissionRepository) CreateEntry(entry *models.CommissionEntry) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return commission.ErrDuplicateEntry
			}
			return err
		}
		w, err := lockWallet(tx, entry.AffiliateProfileID)
		if err != nil {
			return err
		}
		w.Available += entry.Amount
		w.LifetimeEarned += entry.Amount
		if err := tx.Model(w).Updates(map[string]interface{}{
			"available":       w.Available,
			"lifetime_earned": w.LifetimeEarned,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&models.WalletTransaction{
			AffiliateProfileID: entry.AffiliateProfileID,
			Amount:             entry.Amount,
			Type:               domain.WalletTxTypeCommission,
			Reference:          entry.TransactionRef,
		}).Error
	})
}

func (r *CommissionRepository) EntryByTransactionRef(ref string) (*models.CommissionEntry, error) {
	var entry models.CommissionEntry
	err := r.db.Where("transaction_ref = ?", ref).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ReverseEntry flips POSTED -> REVERSED and debits the wallet atomically. The
// row is retained for the audit trail. Reversing twice is a no-op.
func (r *CommissionRepository) ReverseEntry(ref, reason string) (*models.CommissionEntry, error) {
	var entry models.CommissionEntry
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("transaction_ref = ?", ref).First(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return commission.ErrEntryNotFound
			}
			return err
		}
		switch entry.Status {
		case domain.EntryReversed:
			return nil
		case domain.EntryPaidOut:
			return commission.ErrEntryPaidOut
		}
		now := time.Now()
		entry.Status = domain.EntryReversed
		entry.ReversalReason = reason
		entry.ReversedAt = &now
		if err := tx.Model(&entry).Updates(map[string]interface{}{
			"status":          entry.Status,
			"reversal_reason": entry.ReversalReason,
			"reversed_at":     entry.ReversedAt,
		}).Error; err != nil {
			return err
		}
		w, err := lockWallet(tx, entry.AffiliateProfileID)
		if err != nil {
			return err
		}
		w.Available -= entry.Amount
		w.LifetimeEarned -= entry.Amount
		if err := tx.Model(w).Updates(map[string]interface{}{
			"available":       w.Available,
			"lifetime_earned": w.LifetimeEarned,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&models.WalletTransaction{
			AffiliateProfileID: entry.AffiliateProfileID,
			Amount:             -entry.Amount,
			Type:               domain.WalletTxTypeReversal,
			Reference:          entry.TransactionRef,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarkPaidOut flips POSTED -> PAID_OUT for the given payout and debits the
// available balance atomically. Re-flipping for the same payout ref is a no-op.
func (r *CommissionRepository) MarkPaidOut(ref, payoutRef string) (*models.CommissionEntry, error) {
	var entry models.CommissionEntry
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("transaction_ref = ?", ref).First(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return commission.ErrEntryNotFound
			}
			return err
		}
		switch entry.Status {
		case domain.EntryPaidOut:
			if entry.PayoutRef == payoutRef {
				return nil
			}
			return fmt.Errorf("entry %s already paid out under payout %s", ref, entry.PayoutRef)
		case domain.EntryReversed:
			return fmt.Errorf("entry %s is REVERSED and cannot be paid out", ref)
		}
		now := time.Now()
		entry.Status = domain.EntryPaidOut
		entry.PayoutRef = payoutRef
		entry.PaidOutAt = &now
		if err := tx.Model(&entry).Updates(map[string]interface{}{
			"status":      entry.Status,
			"payout_ref":  entry.PayoutRef,
			"paid_out_at": entry.PaidOutAt,
		}).Error; err != nil {
			return err
		}
		w, err := lockWallet(tx, entry.AffiliateProfileID)
		if err != nil {
			return err
		}
		// The amount moves from available to pending until the payout row
		// completes; ClearPending releases it.
		w.Available -= entry.Amount
		w.Pending += entry.Amount
		if err := tx.Model(w).Updates(map[string]interface{}{
			"available": w.Available,
			"pending":   w.Pending,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&models.WalletTransaction{
			AffiliateProfileID: entry.AffiliateProfileID,
			Amount:             -entry.Amount,
			Type:               domain.WalletTxTypePayout,
			Reference:          payoutRef,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SuccessOrders returns orders attributed to the affiliate (directly or through
// the legacy translation table) that reached SUCCESS at or before asOf. The
// filters mirror the attribution rules applied at posting time — self-referred
// orders and inactive affiliates never post, so they must not count as
// qualifying here either, or every correctly-skipped order would reconcile as
// a false missing entry.
func (r *CommissionRepository) SuccessOrders(affiliateID uint, asOf time.Time) ([]models.Order, error) {
	var profile models.AffiliateProfile
	if err := r.db.First(&profile, affiliateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !profile.Active {
		return nil, nil
	}
	var orders []models.Order
	err := r.db.
		Where("status = ? AND COALESCE(paid_at, created_at) <= ?", domain.OrderSuccess, asOf).
		Where("buyer_id <> ?", profile.UserID).
		Where("affiliate_profile_id = ? OR legacy_affiliate_id IN (?)",
			affiliateID,
			r.db.Model(&models.LegacyAffiliateMap{}).Select("legacy_id").Where("affiliate_profile_id = ?", affiliateID),
		).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

// Entries returns all entries for the affiliate created at or before asOf,
// REVERSED ones included.
func (r *CommissionRepository) Entries(affiliateID uint, asOf time.Time) ([]models.CommissionEntry, error) {
	var entries []models.CommissionEntry
	err := r.db.
		Where("affiliate_profile_id = ? AND created_at <= ?", affiliateID, asOf).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

// Wallet returns (nil, nil) when the affiliate has no wallet row yet.
func (r *CommissionRepository) Wallet(affiliateID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.Where("affiliate_profile_id = ?", affiliateID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListByAffiliate returns the commission history for an affiliate, newest first.
func (r *CommissionRepository) ListByAffiliate(affiliateID uint, limit, offset int) ([]models.CommissionEntry, error) {
	var entries []models.CommissionEntry
	err := r.db.Where("affiliate_profile_id = ?", affiliateID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&entries).Error
	return entries, err
}

// ListByPayoutRef returns every entry flipped under one payout, for settlement
// bookkeeping after a resumed payout run.
func (r *CommissionRepository) ListByPayoutRef(payoutRef string) ([]models.CommissionEntry, error) {
	var entries []models.CommissionEntry
	err := r.db.Where("payout_ref = ?", payoutRef).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

// ListPostedByAffiliate returns entries still awaiting payout.
func (r *CommissionRepository) ListPostedByAffiliate(affiliateID uint) ([]models.CommissionEntry, error) {
	var entries []models.CommissionEntry
	err := r.db.Where("affiliate_profile_id = ? AND status = ?", affiliateID, domain.EntryPosted).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

// lockWallet loads the affiliate's wallet row under FOR UPDATE, creating it on
// first use so the very first commission posting doesn't need a separate setup
// step.
func lockWallet(tx *gorm.DB, affiliateID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("affiliate_profile_id = ?", affiliateID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		created := models.NewWallet(affiliateID)
		if err := tx.Create(created).Error; err != nil {
			return nil, err
		}
		return created, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}
