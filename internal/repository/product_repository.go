package repository

import (
	"context"

	"app/internal/domain/model"
)

type ProductListQuery struct {
	Page          int
	Limit         int
	Q             string
	CategoryID    *int64
	OnlyAvailable bool
}

type ProductRepository interface {
	FindByID(ctx context.Context, productID int64) (model.Product, error)
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	Create(ctx context.Context, p model.Product) (int64, error)
	SetAvailability(ctx context.Context, productID int64, available bool) error
}
