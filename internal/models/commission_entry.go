package models

import (
	"time"

	"gorm.io/gorm"
)

// CommissionEntry is one ledger record of commission owed for one transaction.
// The unique index on TransactionRef is the storage-layer backstop that makes
// posting idempotent: at most one entry per order, ever. Entries are never
// mutated after posting except for the PAID_OUT and REVERSED status flips.
type CommissionEntry struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	AffiliateProfileID uint           `gorm:"not null;index" json:"affiliate_profile_id"`
	TransactionRef     string         `gorm:"uniqueIndex;size:64;not null" json:"transaction_ref"`
	Amount             int64          `gorm:"not null" json:"amount"` // whole rupiah
	RateType           string         `gorm:"size:20;not null" json:"rate_type"`  // snapshot of policy at posting time
	RateValue          float64        `gorm:"not null" json:"rate_value"`
	Status             string         `gorm:"size:20;not null;index" json:"status"` // POSTED, PAID_OUT, REVERSED
	PayoutRef          string         `gorm:"size:64;index" json:"payout_ref"`
	ReversalReason     string         `gorm:"size:255" json:"reversal_reason"`
	ReversedAt         *time.Time     `json:"reversed_at"`
	PaidOutAt          *time.Time     `json:"paid_out_at"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	AffiliateProfile AffiliateProfile `gorm:"foreignKey:AffiliateProfileID" json:"-"`
}

func (CommissionEntry) TableName() string { return "commission_entries" }
