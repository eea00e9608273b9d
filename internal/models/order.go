package models

import (
	"time"

	"gorm.io/gorm"
)

// Order is one purchase event. Commission is computable only once Status is
// SUCCESS; after that the row is immutable except for the refund transition.
type Order struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	OrderRef    string         `gorm:"uniqueIndex;size:64;not null" json:"order_ref"`
	BuyerID     uint           `gorm:"not null;index" json:"buyer_id"`
	ProductID   uint           `gorm:"not null;index" json:"product_id"`
	GrossAmount int64          `gorm:"not null" json:"gross_amount"` // whole rupiah
	Status      string         `gorm:"size:20;not null;index" json:"status"` // PENDING, SUCCESS, FAILED, REFUNDED
	// Affiliate attribution as delivered by the order producer. Exactly one of the
	// two is set when the order carries attribution: a current profile ID, or a
	// legacy platform ID that must go through the translation table.
	AffiliateProfileID *uint  `gorm:"index" json:"affiliate_profile_id"`
	LegacyAffiliateID  *int64 `gorm:"index" json:"legacy_affiliate_id"`
	PaidAt      *time.Time     `json:"paid_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Buyer   User    `gorm:"foreignKey:BuyerID" json:"-"`
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (Order) TableName() string { return "orders" }
