package repository

import (
	"errors"

	"komisi/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MappingRepository manages the legacy-affiliate-ID translation table built
// during migration from the prior platform.
type MappingRepository struct {
	db *gorm.DB
}

func NewMappingRepository(db *gorm.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

func (r *MappingRepository) Upsert(m *models.LegacyAffiliateMap) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "legacy_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"affiliate_profile_id", "source", "updated_at"}),
	}).Create(m).Error
}

// GetByLegacyID returns (nil, nil) when the legacy ID is unmapped.
func (r *MappingRepository) GetByLegacyID(legacyID int64) (*models.LegacyAffiliateMap, error) {
	var m models.LegacyAffiliateMap
	err := r.db.Where("legacy_id = ?", legacyID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MappingRepository) Delete(legacyID int64) error {
	return r.db.Where("legacy_id = ?", legacyID).Delete(&models.LegacyAffiliateMap{}).Error
}

func (r *MappingRepository) List(limit, offset int) ([]models.LegacyAffiliateMap, error) {
	var list []models.LegacyAffiliateMap
	err := r.db.Order("legacy_id ASC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
