package repository

import (
	"context"

	"app/internal/domain/model"
)

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	Create(ctx context.Context, c model.Category) (int64, error)
}
