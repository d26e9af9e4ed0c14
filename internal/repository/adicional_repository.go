package repository

import (
	"context"

	"app/internal/domain/model"
)

type AdicionalRepository interface {
	//存在しないIDは結果に含まれない（呼び出し側で価格0扱い）
	FindByIDs(ctx context.Context, ids []int64) ([]model.Adicional, error)
	List(ctx context.Context) ([]model.Adicional, error)
	Create(ctx context.Context, a model.Adicional) (int64, error)
}
