package repository

import (
	"context"

	"app/internal/domain/model"
)

type TableRepository interface {
	FindByID(ctx context.Context, tableID int64) (model.Table, error)
	List(ctx context.Context) ([]model.Table, error)

	//status変更。assignedToはnilで担当解除。
	UpdateStatus(ctx context.Context, tableID int64, status model.TableStatus, assignedTo *int64) error
}
