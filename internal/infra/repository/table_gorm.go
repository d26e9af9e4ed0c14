package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type TableGormRepository struct {
	db *gorm.DB
}

func NewTableGormRepository(db *gorm.DB) *TableGormRepository {
	return &TableGormRepository{db: db}
}

func (r *TableGormRepository) FindByID(ctx context.Context, tableID int64) (model.Table, error) {
	var t model.Table
	err := r.db.WithContext(ctx).Where("id = ?", tableID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Table{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Table{}, err
	}
	return t, nil
}

func (r *TableGormRepository) List(ctx context.Context) ([]model.Table, error) {
	var items []model.Table
	if err := r.db.WithContext(ctx).Order("number asc").Find(&items).Error; err != nil {
		return []model.Table{}, err
	}
	return items, nil
}

func (r *TableGormRepository) UpdateStatus(ctx context.Context, tableID int64, status model.TableStatus, assignedTo *int64) error {
	res := r.db.WithContext(ctx).Model(&model.Table{}).
		Where("id = ?", tableID).
		Updates(map[string]interface{}{
			"status":         status,
			"assigned_to_id": assignedTo,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
