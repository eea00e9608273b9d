package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a sellable item: a membership plan, a course, or a physical product.
// CommissionRate holds a percentage (0-100) when CommissionType is PERCENTAGE, or a
// flat rupiah amount when FLAT — the same dual-use column the admin panel writes.
// The commission engine only reads products; admins own their configuration.
type Product struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"size:255;not null" json:"name"`
	Slug           string         `gorm:"uniqueIndex;size:128;not null" json:"slug"`
	Price          int64          `gorm:"not null" json:"price"` // whole rupiah
	CommissionType string         `gorm:"size:20;not null;index" json:"commission_type"` // PERCENTAGE | FLAT
	CommissionRate float64        `gorm:"not null;default:0" json:"commission_rate"`
	Active         bool           `gorm:"not null;default:true;index" json:"active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string { return "products" }
