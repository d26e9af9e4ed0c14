package repository

import (
	"context"

	"app/internal/domain/model"

	"gorm.io/gorm"
)

type AdicionalGormRepository struct {
	db *gorm.DB
}

func NewAdicionalGormRepository(db *gorm.DB) *AdicionalGormRepository {
	return &AdicionalGormRepository{db: db}
}

func (r *AdicionalGormRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.Adicional, error) {
	if len(ids) == 0 {
		return []model.Adicional{}, nil
	}
	var items []model.Adicional
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return []model.Adicional{}, err
	}
	return items, nil
}

func (r *AdicionalGormRepository) List(ctx context.Context) ([]model.Adicional, error) {
	var items []model.Adicional
	if err := r.db.WithContext(ctx).Order("name asc").Find(&items).Error; err != nil {
		return []model.Adicional{}, err
	}
	return items, nil
}

func (r *AdicionalGormRepository) Create(ctx context.Context, a model.Adicional) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		return 0, err
	}
	return a.ID, nil
}
