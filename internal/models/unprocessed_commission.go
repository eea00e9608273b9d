package models

import (
	"time"

	"gorm.io/gorm"
)

// UnprocessedCommission parks an order whose commission could not be posted
// (rate misconfiguration, invariant violation). Operators query these and fix
// the underlying data; the engine never drops a failed commission silently.
type UnprocessedCommission struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	OrderRef   string         `gorm:"size:64;not null;index" json:"order_ref"`
	Reason     string         `gorm:"size:40;not null;index" json:"reason"` // CONFIGURATION_ERROR, INVARIANT_VIOLATION
	Detail     string         `gorm:"size:512" json:"detail"`
	ResolvedAt *time.Time     `gorm:"index" json:"resolved_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (UnprocessedCommission) TableName() string { return "unprocessed_commissions" }
