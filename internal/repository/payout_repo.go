package repository

import (
	"errors"

	"komisi/internal/domain"
	"komisi/internal/models"

	"gorm.io/gorm"
)

type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) Create(p *models.Payout) error {
	return r.db.Create(p).Error
}

// GetByPayoutRef returns (nil, nil) when no payout exists for the ref.
func (r *PayoutRepository) GetByPayoutRef(ref string) (*models.Payout, error) {
	var p models.Payout
	err := r.db.Where("payout_ref = ?", ref).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FirstUnsettledByAffiliate returns the oldest PENDING or FAILED payout, or
// (nil, nil) when every payout has completed. Settlement must resume it before
// a new payout may be opened, so entries flipped under its ref are never
// stranded.
func (r *PayoutRepository) FirstUnsettledByAffiliate(affiliateID uint) (*models.Payout, error) {
	var p models.Payout
	err := r.db.Where("affiliate_profile_id = ? AND status <> ?", affiliateID, domain.PayoutCompleted).
		Order("created_at ASC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PayoutRepository) Update(p *models.Payout) error {
	return r.db.Save(p).Error
}

func (r *PayoutRepository) ListByAffiliate(affiliateID uint, limit, offset int) ([]models.Payout, error) {
	var list []models.Payout
	err := r.db.Where("affiliate_profile_id = ?", affiliateID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}
