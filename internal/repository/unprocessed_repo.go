package repository

import (
	"time"

	"komisi/internal/models"

	"gorm.io/gorm"
)

// UnprocessedRepository implements commission.ParkingStore: the queryable
// record of commissions that failed posting and await manual resolution.
type UnprocessedRepository struct {
	db *gorm.DB
}

func NewUnprocessedRepository(db *gorm.DB) *UnprocessedRepository {
	return &UnprocessedRepository{db: db}
}

func (r *UnprocessedRepository) Park(rec *models.UnprocessedCommission) error {
	return r.db.Create(rec).Error
}

func (r *UnprocessedRepository) ListUnresolved(limit, offset int) ([]models.UnprocessedCommission, error) {
	var list []models.UnprocessedCommission
	err := r.db.Where("resolved_at IS NULL").
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

func (r *UnprocessedRepository) Resolve(id uint) error {
	now := time.Now()
	return r.db.Model(&models.UnprocessedCommission{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Update("resolved_at", &now).Error
}
