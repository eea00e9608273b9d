package models

import (
	"time"

	"komisi/internal/domain"

	"gorm.io/gorm"
)

// Wallet is the derived balance projection per affiliate. The commission ledger
// is the source of truth; Available must always equal the sum of POSTED (not yet
// paid out) entry amounts and is recomputable from them on demand.
type Wallet struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	AffiliateProfileID uint           `gorm:"uniqueIndex;not null" json:"affiliate_profile_id"`
	Available          int64          `gorm:"not null;default:0" json:"available"` // whole rupiah
	Pending            int64          `gorm:"not null;default:0" json:"pending"`   // flipped into a payout not yet completed
	LifetimeEarned     int64          `gorm:"not null;default:0" json:"lifetime_earned"`
	Currency           string         `gorm:"size:3;default:'IDR'" json:"currency"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	AffiliateProfile AffiliateProfile `gorm:"foreignKey:AffiliateProfileID" json:"-"`
}

func (Wallet) TableName() string { return "wallets" }

// WalletTransaction records credits/debits for wallet history (commission
// postings, reversals, payouts, projection rebuilds).
type WalletTransaction struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	AffiliateProfileID uint           `gorm:"not null;index" json:"affiliate_profile_id"`
	Amount             int64          `gorm:"not null" json:"amount"` // positive = credit, negative = debit
	Type               string         `gorm:"size:30;not null;index" json:"type"` // COMMISSION, REVERSAL, PAYOUT, REBUILD
	Reference          string         `gorm:"size:128" json:"reference"`          // e.g. transaction_ref, payout_ref
	CreatedAt          time.Time      `json:"created_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (WalletTransaction) TableName() string { return "wallet_transactions" }

// NewWallet returns an empty projection for an affiliate.
func NewWallet(affiliateProfileID uint) *Wallet {
	return &Wallet{AffiliateProfileID: affiliateProfileID, Currency: domain.Currency}
}
