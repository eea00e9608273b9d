package repository

import (
	"strconv"

	"komisi/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingRepository stores the operator-tunable knobs of the commission
// pipeline (default rate percent, reconcile tolerance, payout minimum) as
// key/value rows, editable through the admin settings surface.
type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(key string) (string, error) {
	var s models.SystemSetting
	if err := r.db.Where("`key` = ?", key).First(&s).Error; err != nil {
		return "", err
	}
	return s.Value, nil
}

// GetInt64 reads a numeric setting, returning the fallback when the row is
// missing or malformed. The commission knobs are whole-rupiah amounts, so
// settings written with decimals fall back rather than silently truncate.
func (r *SettingRepository) GetInt64(key string, fallback int64) int64 {
	val, err := r.Get(key)
	if err != nil || val == "" {
		return fallback
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

// GetFloat64 reads a decimal setting (e.g. the default rate percent) with the
// same fallback behavior as GetInt64.
func (r *SettingRepository) GetFloat64(key string, fallback float64) float64 {
	val, err := r.Get(key)
	if err != nil || val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return f
}

func (r *SettingRepository) Set(key, value string) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.SystemSetting{Key: key, Value: value}).Error
}

func (r *SettingRepository) GetAll() ([]models.SystemSetting, error) {
	var list []models.SystemSetting
	err := r.db.Order("`key` ASC").Find(&list).Error
	return list, err
}

// SeedDefaults inserts default settings if they don't already exist.
func (r *SettingRepository) SeedDefaults(defaults map[string]string) error {
	for k, v := range defaults {
		var count int64
		r.db.Model(&models.SystemSetting{}).Where("`key` = ?", k).Count(&count)
		if count == 0 {
			if err := r.db.Create(&models.SystemSetting{Key: k, Value: v}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
