package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"app/internal/domain/model"
	"app/internal/queue"
	repo "app/internal/repository"
)

// 注文イベントの通知先（キッチン表示など）。
// 送信失敗で業務処理は止めない。
type OrderEventPublisher interface {
	Publish(ctx context.Context, event queue.OrderEvent) error
}

// テーブルと注文のライフサイクル管理。
// 「1テーブルにつきアクティブ注文は1件」をここで守る。
type TableOrderUsecase struct {
	tx     repo.TransactionManager
	events OrderEventPublisher
}

func NewTableOrderUsecase(tx repo.TransactionManager, events OrderEventPublisher) *TableOrderUsecase {
	return &TableOrderUsecase{tx: tx, events: events}
}

type ActiveOrderOutput struct {
	ID         int64     `json:"id"`
	Status     string    `json:"status"`
	Total      int64     `json:"total"`
	IsActive   bool      `json:"is_active"`
	IsReceived bool      `json:"is_received"`
	CreatedAt  time.Time `json:"created_at"`
}

type TableStateOutput struct {
	ID           int64               `json:"id"`
	Number       string              `json:"number"`
	Capacity     int                 `json:"capacity"`
	Status       string              `json:"status"`
	AssignedToID *int64              `json:"assigned_to_id"`
	ActiveOrders []ActiveOrderOutput `json:"active_orders"`
}

type TableStatusCheckOutput struct {
	Table            model.Table         `json:"table"`
	ActiveOrders     []ActiveOrderOutput `json:"active_orders"`
	ShouldBeOccupied bool                `json:"should_be_occupied"`
	StatusMatches    bool                `json:"status_matches"`
}

type OrderItemOutput struct {
	ID            int64   `json:"id"`
	ProductID     int64   `json:"product_id"`
	Name          string  `json:"name"`
	Price         int64   `json:"price"`
	Quantity      int64   `json:"quantity"`
	Notes         string  `json:"notes,omitempty"`
	AdicionaisIDs []int64 `json:"adicionais_ids,omitempty"`
}

type OrderOutput struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"user_id"`
	TableID       *int64            `json:"table_id"`
	Status        string            `json:"status"`
	Total         int64             `json:"total"`
	IsPaid        bool              `json:"is_paid"`
	IsActive      bool              `json:"is_active"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	Items         []OrderItemOutput `json:"items"`
}

// SelectTable は注文開始前のテーブル検証。副作用なし。
// statusがFREEでも、終端以外の注文が残っていないかを改めて問い合わせる
// （status列がずれている可能性があるので注文の存在確認を正とする）。
func (u *TableOrderUsecase) SelectTable(ctx context.Context, tableID int64, staffUserID int64) (TableStateOutput, error) {
	if staffUserID <= 0 {
		return TableStateOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if tableID <= 0 {
		return TableStateOutput{}, NewHTTPError(http.StatusBadRequest, "invalid table id")
	}

	var out TableStateOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := r.Tables().FindByID(ctx, tableID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "table not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if t.Status != model.TableStatusFree {
			return NewHTTPError(http.StatusConflict,
				fmt.Sprintf("table %s is %s", t.Number, t.Status))
		}

		active, found, err := r.Orders().FindActiveByTableID(ctx, tableID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			return NewHTTPError(http.StatusConflict,
				fmt.Sprintf("table %s already has active order %d", t.Number, active.ID))
		}

		out = toTableState(t, nil)
		return nil
	})

	if err != nil {
		return TableStateOutput{}, err
	}
	return out, nil
}

type CreateOrderItemInput struct {
	ProductID     int64
	Quantity      int64
	Notes         string
	AdicionaisIDs []int64
}

type CreateOrderInput struct {
	StaffUserID int64
	TableID     int64
	Notes       string
	Items       []CreateOrderItemInput
}

// CreateOrder は注文作成とテーブルのOCCUPIED遷移を1トランザクションで行う。
// 単価は「商品の現在価格＋選択した追加の現在価格」で作成時に確定する。
func (u *TableOrderUsecase) CreateOrder(ctx context.Context, in CreateOrderInput) (OrderOutput, error) {
	if in.StaffUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.TableID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "table_id required")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "items required")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "product_id required")
		}
		if it.Quantity <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "quantity must be positive")
		}
	}

	var out OrderOutput
	var detail model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := r.Tables().FindByID(ctx, in.TableID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "table not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if t.Status != model.TableStatusFree {
			return NewHTTPError(http.StatusConflict,
				fmt.Sprintf("table %s is %s", t.Number, t.Status))
		}

		existing, found, err := r.Orders().FindActiveByTableID(ctx, in.TableID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			return NewHTTPError(http.StatusConflict,
				fmt.Sprintf("table %s already has active order %d", t.Number, existing.ID))
		}

		//全明細の追加IDをまとめて1回で引く。存在しないIDは価格0扱い。
		adicionalPrice, err := resolveAdicionalPrices(ctx, r, in.Items)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		orderItems := make([]model.OrderItem, 0, len(in.Items))
		var total int64 = 0

		for _, it := range in.Items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound,
					fmt.Sprintf("product %d not found", it.ProductID))
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.IsAvailable {
				return NewHTTPError(http.StatusUnprocessableEntity,
					fmt.Sprintf("product %s is unavailable", p.Name))
			}

			//単価＝商品価格＋追加の合計（ここで確定、以後再計算しない）
			unitPrice := p.Price
			for _, id := range it.AdicionaisIDs {
				unitPrice += adicionalPrice[id]
			}

			//正規形（adicionaisIdsキー）で保存し直す
			custom, err := model.Customizations{AdicionaisIDs: it.AdicionaisIDs}.Encode()
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "internal error")
			}

			orderItems = append(orderItems, model.OrderItem{
				ProductID:      it.ProductID,
				Quantity:       it.Quantity,
				Price:          unitPrice,
				Notes:          it.Notes,
				Customizations: custom,
			})

			total += unitPrice * it.Quantity
		}

		//スタッフが入力するのでPENDINGではなくCONFIRMEDで作る
		now := time.Now()
		tableID := in.TableID
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:    in.StaffUserID,
			TableID:   &tableID,
			Status:    model.OrderStatusConfirmed,
			Total:     total,
			IsActive:  true,
			Notes:     in.Notes,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err == repo.ErrActiveOrderExists {
			//同時作成の競合はDB制約で検出される
			return NewHTTPError(http.StatusConflict,
				fmt.Sprintf("table %s already has an active order", t.Number))
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//テーブルを占有して担当者を付ける
		if err := r.Tables().UpdateStatus(ctx, in.TableID, model.TableStatusOccupied, &in.StaffUserID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		detail, err = r.Orders().FindDetail(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(detail)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	u.publish(ctx, queue.EventOrderCreated, detail)
	return out, nil
}

type AddProductInput struct {
	ProductID int64
	Quantity  int64
	Price     int64
	Notes     string
}

// AddProductsToOrder はOCCUPIEDなテーブルのアクティブ注文に明細を追加する。
// 合計は差分加算ではなく、注文に付いている全明細から計算し直す。
func (u *TableOrderUsecase) AddProductsToOrder(ctx context.Context, tableID int64, products []AddProductInput) (OrderOutput, error) {
	if tableID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid table id")
	}
	if len(products) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "products required")
	}
	for _, p := range products {
		if p.ProductID <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "product_id required")
		}
		if p.Quantity <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "quantity must be positive")
		}
		if p.Price <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "price must be positive")
		}
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := r.Tables().FindByID(ctx, tableID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "table not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if t.Status != model.TableStatusOccupied {
			return NewHTTPError(http.StatusConflict,
				fmt.Sprintf("table %s is not occupied", t.Number))
		}

		active, found, err := r.Orders().FindActiveByTableID(ctx, tableID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !found {
			return NewHTTPError(http.StatusConflict,
				fmt.Sprintf("no active order for table %s", t.Number))
		}

		items := make([]model.OrderItem, 0, len(products))
		for _, p := range products {
			items = append(items, model.OrderItem{
				ProductID: p.ProductID,
				Quantity:  p.Quantity,
				Price:     p.Price,
				Notes:     p.Notes,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, active.ID, items); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//過去のずれを引きずらないように全明細から計算し直す
		all, err := r.OrderItems().ListByOrderID(ctx, active.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		var total int64 = 0
		for _, it := range all {
			total += it.Price * it.Quantity
		}
		if err := r.Orders().UpdateTotal(ctx, active.ID, total); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		detail, err := r.Orders().FindDetail(ctx, active.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(detail)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// ProcessPayment は支払いを記録する。statusは変えず、テーブルも解放しない。
// 解放は受け取り（MarkOrderAsReceived）側の責務。支払いと受け渡しは別の業務イベント。
// amountは現状未使用（釣り銭・不足チェックはしない）。
func (u *TableOrderUsecase) ProcessPayment(ctx context.Context, orderID int64, method model.PaymentMethod, amount *int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	if !method.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment method")
	}
	_ = amount

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "order not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Orders().UpdatePayment(ctx, orderID, method, true, false); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		detail, err := r.Orders().FindDetail(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(detail)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// MarkOrderAsReceived は提供済みにして、テーブルに終端以外の注文が
// 残っていなければFREEに戻す。未払いならisActiveは立てたままにする
// （会計・集金側から見えるように）。
func (u *TableOrderUsecase) MarkOrderAsReceived(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var out OrderOutput
	var detail model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.Status.IsReceived() {
			return NewHTTPError(http.StatusConflict, "order already received")
		}

		stillActive := !o.IsPaid
		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusDelivered, stillActive); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//テーブルに終端以外の注文が残っていなければ解放
		if o.TableID != nil {
			n, err := r.Orders().CountActiveByTableID(ctx, *o.TableID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if n == 0 {
				if err := r.Tables().UpdateStatus(ctx, *o.TableID, model.TableStatusFree, nil); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			}
		}

		detail, err = r.Orders().FindDetail(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(detail)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	u.publish(ctx, queue.EventOrderReceived, detail)
	return out, nil
}

// CancelOrder はキャンセルして、テーブルがあれば無条件に解放する。
// 1テーブル1アクティブ注文の不変条件から、他に守るべき注文は存在しない。
func (u *TableOrderUsecase) CancelOrder(ctx context.Context, orderID int64, staffUserID int64) (OrderOutput, error) {
	if staffUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var out OrderOutput
	var detail model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled, false); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.TableID != nil {
			if err := r.Tables().UpdateStatus(ctx, *o.TableID, model.TableStatusFree, nil); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  staffUserID,
			Action:       model.AuditActionCancelOrder,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			Detail:       auditDetail(map[string]interface{}{"is_paid": o.IsPaid, "table_id": o.TableID}),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		detail, err = r.Orders().FindDetail(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(detail)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	u.publish(ctx, queue.EventOrderCancelled, detail)
	return out, nil
}

// CheckTableStatus はstatus列と注文実体のずれを点検する読み取り専用の監査。
// RESERVED/MAINTENANCEは注文由来の状態ではないので常に不一致扱い。
// 修復はしない。
func (u *TableOrderUsecase) CheckTableStatus(ctx context.Context, tableID int64) (TableStatusCheckOutput, error) {
	if tableID <= 0 {
		return TableStatusCheckOutput{}, NewHTTPError(http.StatusBadRequest, "invalid table id")
	}

	var out TableStatusCheckOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := r.Tables().FindByID(ctx, tableID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "table not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		active, found, err := r.Orders().FindActiveByTableID(ctx, tableID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		activeOrders := []ActiveOrderOutput{}
		if found {
			activeOrders = append(activeOrders, toActiveOrder(active))
		}

		shouldBeOccupied := found
		statusMatches := (shouldBeOccupied && t.Status == model.TableStatusOccupied) ||
			(!shouldBeOccupied && t.Status == model.TableStatusFree)

		out = TableStatusCheckOutput{
			Table:            t,
			ActiveOrders:     activeOrders,
			ShouldBeOccupied: shouldBeOccupied,
			StatusMatches:    statusMatches,
		}
		return nil
	})

	if err != nil {
		return TableStatusCheckOutput{}, err
	}
	return out, nil
}

// ForceReleaseTable はアクティブ注文の有無を見ずにテーブルをFREEへ戻す。
// オペレーター向けの非常口。注文が孤立し得るのは呼び出し側の責任。
func (u *TableOrderUsecase) ForceReleaseTable(ctx context.Context, tableID int64, staffUserID int64) (model.Table, error) {
	if staffUserID <= 0 {
		return model.Table{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if tableID <= 0 {
		return model.Table{}, NewHTTPError(http.StatusBadRequest, "invalid table id")
	}

	var out model.Table

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := r.Tables().FindByID(ctx, tableID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "table not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Tables().UpdateStatus(ctx, tableID, model.TableStatusFree, nil); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  staffUserID,
			Action:       model.AuditActionForceReleaseTable,
			ResourceType: model.AuditResourceTable,
			ResourceID:   tableID,
			Detail:       auditDetail(map[string]interface{}{"previous_status": t.Status}),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		t.Status = model.TableStatusFree
		t.AssignedToID = nil
		out = t
		return nil
	})

	if err != nil {
		return model.Table{}, err
	}
	return out, nil
}

// GetTableCompleteState はUIのポーリング用。キャッシュせず毎回計算する。
func (u *TableOrderUsecase) GetTableCompleteState(ctx context.Context, tableID int64) (TableStateOutput, error) {
	if tableID <= 0 {
		return TableStateOutput{}, NewHTTPError(http.StatusBadRequest, "invalid table id")
	}

	var out TableStateOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := r.Tables().FindByID(ctx, tableID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "table not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		active, found, err := r.Orders().FindActiveByTableID(ctx, tableID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		var orders []ActiveOrderOutput
		if found {
			orders = append(orders, toActiveOrder(active))
		}
		out = toTableState(t, orders)
		return nil
	})

	if err != nil {
		return TableStateOutput{}, err
	}
	return out, nil
}

type OrderListInput struct {
	Page    int
	Limit   int
	Status  string
	TableID *int64
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// ListOrders はスタッフ用の注文一覧。明細は含まない。
func (u *TableOrderUsecase) ListOrders(ctx context.Context, in OrderListInput) (OrderListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 50
	}

	var out OrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		items, total, err := r.Orders().List(ctx, repo.OrderListFilter{
			Page:    in.Page,
			Limit:   in.Limit,
			Status:  in.Status,
			TableID: in.TableID,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		orders := make([]OrderOutput, 0, len(items))
		for _, o := range items {
			orders = append(orders, toOrderOutput(o))
		}
		out = OrderListOutput{
			Items: orders,
			Total: total,
			Page:  in.Page,
			Limit: in.Limit,
		}
		return nil
	})

	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// ListTables はフロア表示用の一覧。
func (u *TableOrderUsecase) ListTables(ctx context.Context) ([]model.Table, error) {
	var out []model.Table

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		items, err := r.Tables().List(ctx)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = items
		return nil
	})

	if err != nil {
		return []model.Table{}, err
	}
	return out, nil
}

func resolveAdicionalPrices(ctx context.Context, r repo.TxRepos, items []CreateOrderItemInput) (map[int64]int64, error) {
	idSet := map[int64]struct{}{}
	ids := make([]int64, 0)
	for _, it := range items {
		for _, id := range it.AdicionaisIDs {
			if _, ok := idSet[id]; ok {
				continue
			}
			idSet[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	prices := make(map[int64]int64, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}

	adicionais, err := r.Adicionais().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, a := range adicionais {
		prices[a.ID] = a.PriceOrZero()
	}
	return prices, nil
}

func toActiveOrder(o model.Order) ActiveOrderOutput {
	return ActiveOrderOutput{
		ID:         o.ID,
		Status:     string(o.Status),
		Total:      o.Total,
		IsActive:   !o.Status.IsTerminal(),
		IsReceived: o.Status.IsReceived(),
		CreatedAt:  o.CreatedAt,
	}
}

func toTableState(t model.Table, orders []ActiveOrderOutput) TableStateOutput {
	if orders == nil {
		orders = []ActiveOrderOutput{}
	}
	return TableStateOutput{
		ID:           t.ID,
		Number:       t.Number,
		Capacity:     t.Capacity,
		Status:       string(t.Status),
		AssignedToID: t.AssignedToID,
		ActiveOrders: orders,
	}
}

func toOrderOutput(o model.Order) OrderOutput {
	items := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		//保存時に正規化済みなのでここで失敗するのは壊れたデータだけ
		custom, _ := model.ParseCustomizations(it.Customizations)
		items = append(items, OrderItemOutput{
			ID:            it.ID,
			ProductID:     it.ProductID,
			Name:          it.Product.Name,
			Price:         it.Price,
			Quantity:      it.Quantity,
			Notes:         it.Notes,
			AdicionaisIDs: custom.AdicionaisIDs,
		})
	}

	method := ""
	if o.PaymentMethod != nil {
		method = string(*o.PaymentMethod)
	}

	return OrderOutput{
		ID:            o.ID,
		UserID:        o.UserID,
		TableID:       o.TableID,
		Status:        string(o.Status),
		Total:         o.Total,
		IsPaid:        o.IsPaid,
		IsActive:      o.IsActive,
		PaymentMethod: method,
		Notes:         o.Notes,
		CreatedAt:     o.CreatedAt,
		Items:         items,
	}
}

func (u *TableOrderUsecase) publish(ctx context.Context, eventType string, o model.Order) {
	if u.events == nil {
		return
	}

	tableNumber := ""
	if o.Table != nil {
		tableNumber = o.Table.Number
	}

	//通知失敗で注文処理は止めない（Publish側でログされる）
	_ = u.events.Publish(ctx, queue.OrderEvent{
		Type:        eventType,
		OrderID:     o.ID,
		TableID:     o.TableID,
		TableNumber: tableNumber,
		Status:      string(o.Status),
		Total:       o.Total,
		IsPaid:      o.IsPaid,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	})
}

func auditDetail(v map[string]interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
