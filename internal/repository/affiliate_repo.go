package repository

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"komisi/internal/models"

	"gorm.io/gorm"
)

type AffiliateRepository struct {
	db *gorm.DB
}

func NewAffiliateRepository(db *gorm.DB) *AffiliateRepository {
	return &AffiliateRepository{db: db}
}

// generateAffiliateCode returns an 8-character hex code.
func generateAffiliateCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Enroll creates an affiliate profile for the user with a fresh unique code.
func (r *AffiliateRepository) Enroll(userID uint, tier string) (*models.AffiliateProfile, error) {
	var existing models.AffiliateProfile
	if err := r.db.Where("user_id = ?", userID).First(&existing).Error; err == nil {
		return &existing, nil
	}
	for i := 0; i < 10; i++ {
		code, err := generateAffiliateCode()
		if err != nil {
			return nil, err
		}
		profile := models.AffiliateProfile{UserID: userID, Code: code, Tier: tier, Active: true}
		if err := r.db.Create(&profile).Error; err == nil {
			return &profile, nil
		}
		// Collision: retry with new code
	}
	return nil, fmt.Errorf("failed to generate a unique affiliate code after retries")
}

// ProfileByID returns (nil, nil) when no profile exists.
func (r *AffiliateRepository) ProfileByID(id uint) (*models.AffiliateProfile, error) {
	var p models.AffiliateProfile
	err := r.db.First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProfileByLegacyID resolves a prior-platform affiliate ID through the
// persisted translation table. Returns (nil, nil) for unmapped IDs.
func (r *AffiliateRepository) ProfileByLegacyID(legacyID int64) (*models.AffiliateProfile, error) {
	var p models.AffiliateProfile
	err := r.db.
		Joins("JOIN legacy_affiliate_maps ON legacy_affiliate_maps.affiliate_profile_id = affiliate_profiles.id").
		Where("legacy_affiliate_maps.legacy_id = ? AND legacy_affiliate_maps.deleted_at IS NULL", legacyID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *AffiliateRepository) ProfileByUserID(userID uint) (*models.AffiliateProfile, error) {
	var p models.AffiliateProfile
	err := r.db.Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *AffiliateRepository) ProfileByCode(code string) (*models.AffiliateProfile, error) {
	var p models.AffiliateProfile
	err := r.db.Where("code = ? AND active = ?", code, true).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *AffiliateRepository) Update(p *models.AffiliateProfile) error {
	return r.db.Save(p).Error
}

func (r *AffiliateRepository) List(limit, offset int) ([]models.AffiliateProfile, error) {
	var list []models.AffiliateProfile
	err := r.db.Preload("User").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}
