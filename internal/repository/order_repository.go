package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 同じテーブルにアクティブ注文が既にある（部分ユニークインデックス違反）
var ErrActiveOrderExists = errors.New("active order already exists")

type OrderListFilter struct {
	Page    int
	Limit   int
	Status  string
	TableID *int64
	From    *time.Time
	To      *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)

	//user / table / items.product まで読み込んだ注文
	FindDetail(ctx context.Context, orderID int64) (model.Order, error)

	//終端ステータス以外の注文をテーブルで探す
	FindActiveByTableID(ctx context.Context, tableID int64) (model.Order, bool, error)
	CountActiveByTableID(ctx context.Context, tableID int64) (int64, error)

	Create(ctx context.Context, order model.Order) (int64, error)

	UpdateTotal(ctx context.Context, orderID int64, total int64) error
	UpdatePayment(ctx context.Context, orderID int64, method model.PaymentMethod, isPaid bool, isActive bool) error
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus, isActive bool) error

	//スタッフ用の注文一覧
	List(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)
}
