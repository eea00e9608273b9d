package repository

import (
	"errors"

	"komisi/internal/domain"
	"komisi/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByAffiliateID(affiliateID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.Where("affiliate_profile_id = ?", affiliateID).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) GetOrCreate(affiliateID uint) (*models.Wallet, error) {
	w, err := r.GetByAffiliateID(affiliateID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	w = models.NewWallet(affiliateID)
	if err := r.db.Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

// Rebuild recomputes the wallet projection from the commission ledger, the
// source of truth. This is the only sanctioned way to correct balance drift:
// re-derive from entries, never patch the balance by hand. The adjustment is
// recorded in the wallet history.
func (r *WalletRepository) Rebuild(affiliateID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("affiliate_profile_id = ?", affiliateID).First(&w).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				w = *models.NewWallet(affiliateID)
				return tx.Create(&w).Error
			}
			return err
		}
		var available, pending, lifetime int64
		if err := tx.Model(&models.CommissionEntry{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("affiliate_profile_id = ? AND status = ?", affiliateID, domain.EntryPosted).
			Scan(&available).Error; err != nil {
			return err
		}
		// Pending is the paid-out amount whose payout has not completed yet.
		if err := tx.Model(&models.CommissionEntry{}).
			Select("COALESCE(SUM(commission_entries.amount), 0)").
			Joins("JOIN payouts ON payouts.payout_ref = commission_entries.payout_ref").
			Where("commission_entries.affiliate_profile_id = ? AND commission_entries.status = ? AND payouts.status <> ?",
				affiliateID, domain.EntryPaidOut, domain.PayoutCompleted).
			Scan(&pending).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.CommissionEntry{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("affiliate_profile_id = ? AND status <> ?", affiliateID, domain.EntryReversed).
			Scan(&lifetime).Error; err != nil {
			return err
		}
		diff := available - w.Available
		w.Available = available
		w.Pending = pending
		w.LifetimeEarned = lifetime
		if err := tx.Model(&w).Updates(map[string]interface{}{
			"available":       w.Available,
			"pending":         w.Pending,
			"lifetime_earned": w.LifetimeEarned,
		}).Error; err != nil {
			return err
		}
		if diff == 0 {
			return nil
		}
		return tx.Create(&models.WalletTransaction{
			AffiliateProfileID: affiliateID,
			Amount:             diff,
			Type:               domain.WalletTxTypeRebuild,
			Reference:          "ledger_rebuild",
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ClearPending releases the pending hold once a payout completes.
func (r *WalletRepository) ClearPending(affiliateID uint, amount int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		w, err := lockWallet(tx, affiliateID)
		if err != nil {
			return err
		}
		w.Pending -= amount
		if w.Pending < 0 {
			w.Pending = 0
		}
		return tx.Model(w).Update("pending", w.Pending).Error
	})
}

func (r *WalletRepository) ListTransactions(affiliateID uint, limit, offset int) ([]models.WalletTransaction, error) {
	var list []models.WalletTransaction
	err := r.db.Where("affiliate_profile_id = ?", affiliateID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}
