package repository

import (
	"errors"

	"komisi/internal/models"

	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(p *models.Product) error {
	return r.db.Create(p).Error
}

// ProductByID returns (nil, nil) when the product does not exist.
func (r *ProductRepository) ProductByID(id uint) (*models.Product, error) {
	var p models.Product
	err := r.db.First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) GetBySlug(slug string) (*models.Product, error) {
	var p models.Product
	err := r.db.Where("slug = ?", slug).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Update(p *models.Product) error {
	return r.db.Save(p).Error
}

func (r *ProductRepository) List(limit, offset int) ([]models.Product, error) {
	var list []models.Product
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
