package repository

import (
	"errors"

	"komisi/internal/models"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(o *models.Order) error {
	return r.db.Create(o).Error
}

// GetByOrderRef returns (nil, nil) when no order exists for the ref.
func (r *OrderRepository) GetByOrderRef(ref string) (*models.Order, error) {
	var o models.Order
	err := r.db.Where("order_ref = ?", ref).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) Update(o *models.Order) error {
	return r.db.Save(o).Error
}

func (r *OrderRepository) ListByStatus(status string, limit, offset int) ([]models.Order, error) {
	var list []models.Order
	err := r.db.Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}
