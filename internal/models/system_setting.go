package models

import (
	"time"

	"gorm.io/gorm"
)

// SystemSetting stores the commission pipeline's operator-tunable knobs
// (default rate percent, reconcile tolerance, payout minimum) as key/value
// rows. Seeded with defaults at boot, edited through the admin settings
// surface. Keys are the domain.Setting* constants.
type SystemSetting struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Key       string         `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value     string         `gorm:"size:255;not null" json:"value"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (SystemSetting) TableName() string { return "system_settings" }
