package models

import (
	"time"

	"gorm.io/gorm"
)

type Payout struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	AffiliateProfileID uint           `gorm:"not null;index" json:"affiliate_profile_id"`
	PayoutRef          string         `gorm:"uniqueIndex;size:64;not null" json:"payout_ref"`
	Amount             int64          `gorm:"not null" json:"amount"` // whole rupiah
	EntryCount         int            `gorm:"not null;default:0" json:"entry_count"`
	Status             string         `gorm:"size:20;not null;index" json:"status"` // PENDING, COMPLETED, FAILED
	CompletedAt        *time.Time     `json:"completed_at"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	AffiliateProfile AffiliateProfile `gorm:"foreignKey:AffiliateProfileID" json:"-"`
}

func (Payout) TableName() string { return "payouts" }
