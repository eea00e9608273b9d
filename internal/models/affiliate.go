package models

import (
	"time"

	"gorm.io/gorm"
)

// AffiliateProfile enrolls a user as an affiliate. One profile per user.
type AffiliateProfile struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Code      string         `gorm:"uniqueIndex;size:20;not null" json:"code"`
	Tier      string         `gorm:"size:20;not null;default:'STANDARD'" json:"tier"`
	Active    bool           `gorm:"not null;default:true;index" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (AffiliateProfile) TableName() string { return "affiliate_profiles" }

// LegacyAffiliateMap translates an affiliate ID from the prior platform to a
// current profile. Built once during migration and validated there; runtime
// attribution never falls back to name or email matching.
type LegacyAffiliateMap struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	LegacyID           int64          `gorm:"uniqueIndex;not null" json:"legacy_id"`
	AffiliateProfileID uint           `gorm:"not null;index" json:"affiliate_profile_id"`
	Source             string         `gorm:"size:30;not null;default:'sejoli'" json:"source"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	AffiliateProfile AffiliateProfile `gorm:"foreignKey:AffiliateProfileID" json:"-"`
}

func (LegacyAffiliateMap) TableName() string { return "legacy_affiliate_maps" }
