package usecase_test

import (
	"context"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/queue"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks
// =====================

type TableRepoMock struct{ mock.Mock }

func (m *TableRepoMock) FindByID(ctx context.Context, tableID int64) (model.Table, error) {
	args := m.Called(ctx, tableID)
	t, _ := args.Get(0).(model.Table)
	return t, args.Error(1)
}

func (m *TableRepoMock) List(ctx context.Context) ([]model.Table, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Table)
	return items, args.Error(1)
}

func (m *TableRepoMock) UpdateStatus(ctx context.Context, tableID int64, status model.TableStatus, assignedTo *int64) error {
	args := m.Called(ctx, tableID, status, assignedTo)
	return args.Error(0)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindDetail(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindActiveByTableID(ctx context.Context, tableID int64) (model.Order, bool, error) {
	args := m.Called(ctx, tableID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *OrderRepoMock) CountActiveByTableID(ctx context.Context, tableID int64) (int64, error) {
	args := m.Called(ctx, tableID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdateTotal(ctx context.Context, orderID int64, total int64) error {
	args := m.Called(ctx, orderID, total)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdatePayment(ctx context.Context, orderID int64, method model.PaymentMethod, isPaid bool, isActive bool) error {
	args := m.Called(ctx, orderID, method, isPaid, isActive)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus, isActive bool) error {
	args := m.Called(ctx, orderID, status, isActive)
	return args.Error(0)
}

func (m *OrderRepoMock) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]model.Order)
	return items, args.Get(1).(int64), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) FindByID(ctx context.Context, productID int64) (model.Product, error) {
	args := m.Called(ctx, productID)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	panic("not used in TableOrderUsecase tests")
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (int64, error) {
	panic("not used in TableOrderUsecase tests")
}

func (m *ProductRepoMock) SetAvailability(ctx context.Context, productID int64, available bool) error {
	panic("not used in TableOrderUsecase tests")
}

type AdicionalRepoMock struct{ mock.Mock }

func (m *AdicionalRepoMock) FindByIDs(ctx context.Context, ids []int64) ([]model.Adicional, error) {
	args := m.Called(ctx, ids)
	items, _ := args.Get(0).([]model.Adicional)
	return items, args.Error(1)
}

func (m *AdicionalRepoMock) List(ctx context.Context) ([]model.Adicional, error) {
	panic("not used in TableOrderUsecase tests")
}

func (m *AdicionalRepoMock) Create(ctx context.Context, a model.Adicional) (int64, error) {
	panic("not used in TableOrderUsecase tests")
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	panic("not used in TableOrderUsecase tests")
}

// WithinTxはそのまま中のfnを実行するだけ（トランザクション自体は対象外）
type TxReposMock struct {
	tables     *TableRepoMock
	orders     *OrderRepoMock
	orderItems *OrderItemRepoMock
	products   *ProductRepoMock
	adicionais *AdicionalRepoMock
	auditLogs  *AuditRepoMock
}

func (r *TxReposMock) Tables() repo.TableRepository          { return r.tables }
func (r *TxReposMock) Orders() repo.OrderRepository          { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository  { return r.orderItems }
func (r *TxReposMock) Products() repo.ProductRepository      { return r.products }
func (r *TxReposMock) Adicionais() repo.AdicionalRepository  { return r.adicionais }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository    { return r.auditLogs }

type TxManagerMock struct {
	Repos *TxReposMock
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.Repos)
}

type EventPublisherMock struct{ mock.Mock }

func (m *EventPublisherMock) Publish(ctx context.Context, event queue.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newFixture() (*TxReposMock, *usecase.TableOrderUsecase) {
	repos := &TxReposMock{
		tables:     new(TableRepoMock),
		orders:     new(OrderRepoMock),
		orderItems: new(OrderItemRepoMock),
		products:   new(ProductRepoMock),
		adicionais: new(AdicionalRepoMock),
		auditLogs:  new(AuditRepoMock),
	}
	uc := usecase.NewTableOrderUsecase(&TxManagerMock{Repos: repos}, nil)
	return repos, uc
}

func assertHTTPStatus(t *testing.T, err error, status int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "expected HTTPError, got %v", err) {
		assert.Equal(t, status, he.Status)
	}
}

// =====================
// SelectTable
// =====================

func TestSelectTable_Success(t *testing.T) {
	ctx := context.Background()
	repos, uc := newFixture()

	repos.tables.On("FindByID", mock.Anything, int64(1)).
		Return(model.Table{ID: 1, Number: "12", Capacity: 4, Status: model.TableStatusFree}, nil)
	repos.orders.On("FindActiveByTableID", mock.Anything, int64(1)).
		Return(model.Order{}, false, nil)

	out, err := uc.SelectTable(ctx, 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, "FREE", out.Status)
	assert.Empty(t, out.ActiveOrders)

	repos.tables.AssertExpectations(t)
	repos.orders.AssertExpectations(t)
}

func TestSelectTable_NotFound(t *testing.T) {
	repos, uc := newFixture()

	repos.tables.On("FindByID", mock.Anything, int64(99)).
		Return(model.Table{}, repo.ErrNotFound)

	_, err := uc.SelectTable(context.Background(), 99, 10)
	assertHTTPStatus(t, err, 404)
}

func TestSelectTable_OccupiedConflict(t *testing.T) {
	repos, uc := newFixture()

	repos.tables.On("FindByID", mock.Anything, int64(1)).
		Return(model.Table{ID: 1, Number: "12", Status: model.TableStatusOccupied}, nil)

	_, err := uc.SelectTable(context.Background(), 1, 10)
	assertHTTPStatus(t, err, 409)
	assert.Contains(t, err.Error(), "table 12 is OCCUPIED")
}

// status列はFREEでも実注文が残っていれば弾く
func TestSelectTable_StaleFreeWithActiveOrder(t *testing.T) {
	repos, uc := newFixture()

	repos.tables.On("FindByID", mock.Anything, int64(1)).
		Return(model.Table{ID: 1, Number: "12", Status: model.TableStatusFree}, nil)
	repos.orders.On("FindActiveByTableID", mock.Anything, int64(1)).
		Return(model.Order{ID: 7, Status: model.OrderStatusConfirmed}, true, nil)

	_, err := uc.SelectTable(context.Background(), 1, 10)
	assertHTTPStatus(t, err, 409)
	assert.Contains(t, err.Error(), "active order 7")
}

func TestSelectTable_Unauthorized(t *testing.T) {
	_, uc := newFixture()

	_, err := uc.SelectTable(context.Background(), 1, 0)
	assertHTTPStatus(t, err, 401)
}

// =====================
// CreateOrder
// =====================

func TestCreateOrder_Success_FreezesUnitPriceWithAdicionais(t *testing.T) {
	ctx := context.Background()
	repos, uc := newFixture()

	staffID := int64(10)
	tableID := int64(1)

	repos.tables.On("FindByID", mock.Anything, tableID).
		Return(model.Table{ID: tableID, Number: "3", Status: model.TableStatusFree}, nil)
	repos.orders.On("FindActiveByTableID", mock.Anything, tableID).
		Return(model.Order{}, false, nil)

	bacon := int64(200)
	repos.adicionais.On("FindByIDs", mock.Anything, []int64{5}).
		Return([]model.Adicional{{ID: 5, Name: "Bacon", Price: &bacon}}, nil)

	repos.products.On("FindByID", mock.Anything, int64(100)).
		Return(model.Product{ID: 100, Name: "Burger", Price: 2500, IsAvailable: true}, nil)

	//単価 2500+200=2700、数量2で合計5400
	repos.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.UserID == staffID &&
			o.TableID != nil && *o.TableID == tableID &&
			o.Status == model.OrderStatusConfirmed &&
			o.IsActive &&
			o.Total == 5400
	})).Return(int64(77), nil)

	repos.orderItems.On("CreateBulk", mock.Anything, int64(77), mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 1 && items[0].Price == 2700 && items[0].Quantity == 2
	})).Return(nil)

	repos.tables.On("UpdateStatus", mock.Anything, tableID, model.TableStatusOccupied, &staffID).
		Return(nil)

	repos.orders.On("FindDetail", mock.Anything, int64(77)).
		Return(model.Order{ID: 77, UserID: staffID, TableID: &tableID, Status: model.OrderStatusConfirmed, Total: 5400, IsActive: true, CreatedAt: time.Now()}, nil)

	out, err := uc.CreateOrder(ctx, usecase.CreateOrderInput{
		StaffUserID: staffID,
		TableID:     tableID,
		Items: []usecase.CreateOrderItemInput{
			{ProductID: 100, Quantity: 2, AdicionaisIDs: []int64{5}},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(77), out.ID)
	assert.Equal(t, int64(5400), out.Total)
	assert.Equal(t, "CONFIRMED", out.Status)

	repos.tables.AssertExpectations(t)
	repos.orders.AssertExpectations(t)
	repos.orderItems.AssertExpectations(t)
}

// 存在しない追加IDは価格0として扱う（エラーにしない）
func TestCreateOrder_MissingAdicionalPricedAsZero(t *testing.T) {
	repos, uc := newFixture()

	staffID := int64(10)
	tableID := int64(1)

	repos.tables.On("FindByID", mock.Anything, tableID).
		Return(model.Table{ID: tableID, Number: "3", Status: model.TableStatusFree}, nil)
	repos.orders.On("FindActiveByTableID", mock.Anything, tableID).
		Return(model.Order{}, false, nil)
	repos.adicionais.On("FindByIDs", mock.Anything, []int64{999}).
		Return([]model.Adicional{}, nil)
	repos.products.On("FindByID", mock.Anything, int64(100)).
		Return(model.Product{ID: 100, Name: "Burger", Price: 2500, IsAvailable: true}, nil)

	repos.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.Total == 2500
	})).Return(int64(78), nil)
	repos.orderItems.On("CreateBulk", mock.Anything, int64(78), mock.Anything).Return(nil)
	repos.tables.On("UpdateStatus", mock.Anything, tableID, model.TableStatusOccupied, &staffID).Return(nil)
	repos.orders.On("FindDetail", mock.Anything, int64(78)).
		Return(model.Order{ID: 78, Total: 2500}, nil)

	out, err := uc.CreateOrder(context.Background(), usecase.CreateOrderInput{
		StaffUserID: staffID,
		TableID:     tableID,
		Items: []usecase.CreateOrderItemInput{
			{ProductID: 100, Quantity: 1, AdicionaisIDs: []int64{999}},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(2500), out.Total)
}

func TestCreateOrder_UnavailableProduct(t *testing.T) {
	repos, uc := newFixture()

	tableID := int64(1)
	repos.tables.On("FindByID", mock.Anything, tableID).
		Return(model.Table{ID: tableID, Number: "3", Status: model.TableStatusFree}, nil)
	repos.orders.On("FindActiveByTableID", mock.Anything, tableID).
		Return(model.Order{}, false, nil)
	repos.products.On("FindByID", mock.Anything, int64(100)).
		Return(model.Product{ID: 100, Name: "Burger", Price: 2500, IsAvailable: false}, nil)

	_, err := uc.CreateOrder(context.Background(), usecase.CreateOrderInput{
		StaffUserID: 10,
		TableID:     tableID,
		Items:       []usecase.CreateOrderItemInput{{ProductID: 100, Quantity: 1}},
	})
	assertHTTPStatus(t, err, 422)
	assert.Contains(t, err.Error(), "product Burger is unavailable")

	repos.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	repos, uc := newFixture()

	tableID := int64(1)
	repos.tables.On("FindByID", mock.Anything, tableID).
		Return(model.Table{ID: tableID, Number: "3", Status: model.TableStatusFree}, nil)
	repos.orders.On("FindActiveByTableID", mock.Anything, tableID).
		Return(model.Order{}, false, nil)
	repos.products.On("FindByID", mock.Anything, int64(404)).
		Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.CreateOrder(context.Background(), usecase.CreateOrderInput{
		StaffUserID: 10,
		TableID:     tableID,
		Items:       []usecase.CreateOrderItemInput{{ProductID: 404, Quantity: 1}},
	})
	assertHTTPStatus(t, err, 404)
}

func TestCreateOrder_TableNotFree(t *testing.T) {
	repos, uc := newFixture()

	repos.tables.On("FindByID", mock.Anything, int64(1)).
		Return(model.Table{ID: 1, Number: "3", Status: model.TableStatusOccupied}, nil)

	_, err := uc.CreateOrder(context.Background(), usecase.CreateOrderInput{
		StaffUserID: 10,
		TableID:     1,
		Items:       []usecase.CreateOrderItemInput{{ProductID: 100, Quantity: 1}},
	})
	assertHTTPStatus(t, err, 409)
}

// 同時作成の競合はDBの部分ユニークインデックス違反として返ってくる
func TestCreateOrder_ConcurrentConflictFromDB(t *testing.T) {
	repos, uc := newFixture()

	staffID := int64(10)
	tableID := int64(1)

	repos.tables.On("FindByID", mock.Anything, tableID).
		Return(model.Table{ID: tableID, Number: "3", Status: model.TableStatusFree}, nil)
	repos.orders.On("FindActiveByTableID", mock.Anything, tableID).
		Return(model.Order{}, false, nil)
	repos.products.On("FindByID", mock.Anything, int64(100)).
		Return(model.Product{ID: 100, Name: "Burger", Price: 2500, IsAvailable: true}, nil)
	repos.orders.On("Create", mock.Anything, mock.Anything).
		Return(int64(0), repo.ErrActiveOrderExists)

	_, err := uc.CreateOrder(context.Background(), usecase.CreateOrderInput{
		StaffUserID: staffID,
		TableID:     tableID,
		Items:       []usecase.CreateOrderItemInput{{ProductID: 100, Quantity: 1}},
	})
	assertHTTPStatus(t, err, 409)

	repos.tables.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrder_PublishesEvent(t *testing.T) {
	repos := &TxReposMock{
		tables:     new(TableRepoMock),
		orders:     new(OrderRepoMock),
		orderItems: new(OrderItemRepoMock),
		products:   new(ProductRepoMock),
		adicionais: new(AdicionalRepoMock),
		auditLogs:  new(AuditRepoMock),
	}
	events := new(EventPublisherMock)
	uc := usecase.NewTableOrderUsecase(&TxManagerMock{Repos: repos}, events)

	staffID := int64(10)
	tableID := int64(1)

	repos.tables.On("FindByID", mock.Anything, tableID).
		Return(model.Table{ID: tableID, Number: "3", Status: model.TableStatusFree}, nil)
	repos.orders.On("FindActiveByTableID", mock.Anything, tableID).
		Return(model.Order{}, false, nil)
	repos.products.On("FindByID", mock.Anything, int64(100)).
		Return(model.Product{ID: 100, Name: "Burger", Price: 2500, IsAvailable: true}, nil)
	repos.orders.On("Create", mock.Anything, mock.Anything).Return(int64(77), nil)
	repos.orderItems.On("CreateBulk", mock.Anything, int64(77), mock.Anything).Return(nil)
	repos.tables.On("UpdateStatus", mock.Anything, tableID, model.TableStatusOccupied, &staffID).Return(nil)
	repos.orders.On("FindDetail", mock.Anything, int64(77)).
		Return(model.Order{ID: 77, TableID: &tableID, Status: model.OrderStatusConfirmed, Total: 2500, Table: &model.Table{ID: tableID, Number: "3"}}, nil)

	events.On("Publish", mock.Anything, mock.MatchedBy(func(e queue.OrderEvent) bool {
		return e.Type == queue.EventOrderCreated && e.OrderID == 77 && e.TableNumber == "3"
	})).Return(nil)

	_, err := uc.CreateOrder(context.Background(), usecase.CreateOrderInput{
		StaffUserID: staffID,
		TableID:     tableID,
		Items:       []usecase.CreateOrderItemInput{{ProductID: 100, Quantity: 1}},
	})
	assert.NoError(t, err)

	events.AssertExpectations(t)
}

// =====================
// AddProductsToOrder
// =====================

func TestAddProductsToOrder_RecomputesTotalFromAllItems(t *testing.T) {
	repos, uc := newFixture()

	tableID := int64(1)
	repos.tables.On("FindByID", mock.Anything, tableID).
		Return(model.Table{ID: tableID, Number: "3", Status: model.TableStatusOccupied}, nil)
	repos.orders.On("FindActiveByTableID", mock.Anything, tableID).
		Return(model.Order{ID: 77, Status: model.OrderStatusConfirmed}, true, nil)

	repos.orderItems.On("CreateBulk", mock.Anything, int64(77), mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 1 && items[0].Price == 800 && items[0].Quantity == 3
	})).Return(nil)

	//既存明細＋新明細の全件から合計を出す（2500*1 + 800*3 = 4900）
	repos.orderItems.On("ListByOrderID", mock.Anything, int64(77)).
		Return([]model.OrderItem{
			{ProductID: 100, Quantity: 1, Price: 2500},
			{ProductID: 200, Quantity: 3, Price: 800},
		}, nil)
	repos.orders.On("UpdateTotal", mock.Anything, int64(77), int64(4900)).Return(nil)
	repos.orders.On("FindDetail", mock.Anything, int64(77)).
		Return(model.Order{ID: 77, Total: 4900}, nil)

	out, err := uc.AddProductsToOrder(context.Background(), tableID, []usecase.AddProductInput{
		{ProductID: 200, Quantity: 3, Price: 800},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(4900), out.Total)

	repos.orders.AssertExpectations(t)
	repos.orderItems.AssertExpectations(t)
}

func TestAddProductsToOrder_TableNotOccupied(t *testing.T) {
	repos, uc := newFixture()

	repos.tables.On("FindByID", mock.Anything, int64(1)).
		Return(model.Table{ID: 1, Number: "3", Status: model.TableStatusFree}, nil)

	_, err := uc.AddProductsToOrder(context.Background(), 1, []usecase.AddProductInput{
		{ProductID: 200, Quantity: 1, Price: 800},
	})
	assertHTTPStatus(t, err, 409)
}

func TestAddProductsToOrder_NoActiveOrder(t *testing.T) {
	repos, uc := newFixture()

	repos.tables.On("FindByID", mock.Anything, int64(1)).
		Return(model.Table{ID: 1, Number: "3", Status: model.TableStatusOccupied}, nil)
	repos.orders.On("FindActiveByTableID", mock.Anything, int64(1)).
		Return(model.Order{}, false, nil)

	_, err := uc.AddProductsToOrder(context.Background(), 1, []usecase.AddProductInput{
		{ProductID: 200, Quantity: 1, Price: 800},
	})
	assertHTTPStatus(t, err, 409)
	assert.Contains(t, err.Error(), "no active order")
}

// =====================
// ProcessPayment
// =====================

// 支払いを記録してもstatusは変えず、テーブルも解放しない
func TestProcessPayment_DoesNotTouchTableOrStatus(t *testing.T) {
	repos, uc := newFixture()

	tableID := int64(1)
	repos.orders.On("FindByID", mock.Anything, int64(77)).
		Return(model.Order{ID: 77, TableID: &tableID, Status: model.OrderStatusConfirmed}, nil)
	repos.orders.On("UpdatePayment", mock.Anything, int64(77), model.PaymentMethodCash, true, false).
		Return(nil)
	method := model.PaymentMethodCash
	repos.orders.On("FindDetail", mock.Anything, int64(77)).
		Return(model.Order{ID: 77, TableID: &tableID, Status: model.OrderStatusConfirmed, IsPaid: true, PaymentMethod: &method}, nil)

	out, err := uc.ProcessPayment(context.Background(), 77, model.PaymentMethodCash, nil)
	assert.NoError(t, err)
	assert.True(t, out.IsPaid)
	assert.Equal(t, "CONFIRMED", out.Status)
	assert.Equal(t, "CASH", out.PaymentMethod)

	repos.tables.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repos.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessPayment_InvalidMethod(t *testing.T) {
	_, uc := newFixture()

	_, err := uc.ProcessPayment(context.Background(), 77, model.PaymentMethod("BITCOIN"), nil)
	assertHTTPStatus(t, err, 400)
	assert.Contains(t, err.Error(), "invalid payment method")
}

func TestProcessPayment_OrderNotFound(t *testing.T) {
	repos, uc := newFixture()

	repos.orders.On("FindByID", mock.Anything, int64(99)).
		Return(model.Order{}, repo.ErrNotFound)

	_, err := uc.ProcessPayment(context.Background(), 99, model.PaymentMethodCard, nil)
	assertHTTPStatus(t, err, 404)
}

// =====================
// MarkOrderAsReceived
// =====================

// 未払いで受け取り → DELIVEREDだが会計用にisActiveは残す。テーブルは解放。
func TestMarkOrderAsReceived_UnpaidKeepsActiveFlag(t *testing.T) {
	repos, uc := newFixture()

	tableID := int64(1)
	repos.orders.On("FindByID", mock.Anything, int64(77)).
		Return(model.Order{ID: 77, TableID: &tableID, Status: model.OrderStatusReady, IsPaid: false}, nil)
	repos.orders.On("UpdateStatus", mock.Anything, int64(77), model.OrderStatusDelivered, true).
		Return(nil)
	repos.orders.On("CountActiveByTableID", mock.Anything, tableID).
		Return(int64(0), nil)
	repos.tables.On("UpdateStatus", mock.Anything, tableID, model.TableStatusFree, (*int64)(nil)).
		Return(nil)
	repos.orders.On("FindDetail", mock.Anything, int64(77)).
		Return(model.Order{ID: 77, TableID: &tableID, Status: model.OrderStatusDelivered, IsActive: true}, nil)

	out, err := uc.MarkOrderAsReceived(context.Background(), 77)
	assert.NoError(t, err)
	assert.Equal(t, "DELIVERED", out.Status)
	assert.True(t, out.IsActive)

	repos.tables.AssertExpectations(t)
	repos.orders.AssertExpectations(t)
}

// 支払い済みで受け取り → isActiveも落ちる
func TestMarkOrderAsReceived_PaidClearsActiveFlag(t *testing.T) {
	repos, uc := newFixture()

	tableID := int64(1)
	repos.orders.On("FindByID", mock.Anything, int64(77)).
		Return(model.Order{ID: 77, TableID: &tableID, Status: model.OrderStatusReady, IsPaid: true}, nil)
	repos.orders.On("UpdateStatus", mock.Anything, int64(77), model.OrderStatusDelivered, false).
		Return(nil)
	repos.orders.On("CountActiveByTableID", mock.Anything, tableID).
		Return(int64(0), nil)
	repos.tables.On("UpdateStatus", mock.Anything, tableID, model.TableStatusFree, (*int64)(nil)).
		Return(nil)
	repos.orders.On("FindDetail", mock.Anything, int64(77)).
		Return(model.Order{ID: 77, Status: model.OrderStatusDelivered}, nil)

	_, err := uc.MarkOrderAsReceived(context.Background(), 77)
	assert.NoError(t, err)

	repos.orders.AssertExpectations(t)
}

// 他にアクティブ注文が残っていればテーブルは解放しない
func TestMarkOrderAsReceived_KeepsTableWhenOtherActiveOrders(t *testing.T) {
	repos, uc := newFixture()

	tableID := int64(1)
	repos.orders.On("FindByID", mock.Anything, int64(77)).
		Return(model.Order{ID: 77, TableID: &tableID, Status: model.OrderStatusReady}, nil)
	repos.orders.On("UpdateStatus", mock.Anything, int64(77), model.OrderStatusDelivered, true).
		Return(nil)
	repos.orders.On("CountActiveByTableID", mock.Anything, tableID).
		Return(int64(1), nil)
	repos.orders.On("FindDetail", mock.Anything, int64(77)).
		Return(model.Order{ID: 77, Status: model.OrderStatusDelivered}, nil)

	_, err := uc.MarkOrderAsReceived(context.Background(), 77)
	assert.NoError(t, err)

	repos.tables.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkOrderAsReceived_AlreadyReceived(t *testing.T) {
	repos, uc := newFixture()

	repos.orders.On("FindByID", mock.Anything, int64(77)).
		Return(model.Order{ID: 77, Status: model.OrderStatusDelivered}, nil)

	_, err := uc.MarkOrderAsReceived(context.Background(), 77)
	assertHTTPStatus(t, err, 409)
	assert.Contains(t, err.Error(), "already received")
}

// =====================
// CancelOrder
// =====================

// キャンセルはテーブルを無条件に解放して監査ログを残す
func TestCancelOrder_ReleasesTableAndWritesAudit(t *testing.T) {
	repos, uc := newFixture()

	tableID := int64(1)
	repos.orders.On("FindByID", mock.Anything, int64(77)).
		Return(model.Order{ID: 77, TableID: &tableID, Status: model.OrderStatusConfirmed, IsPaid: false}, nil)
	repos.orders.On("UpdateStatus", mock.Anything, int64(77), model.OrderStatusCancelled, false).
		Return(nil)
	repos.tables.On("UpdateStatus", mock.Anything, tableID, model.TableStatusFree, (*int64)(nil)).
		Return(nil)
	repos.auditLogs.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionCancelOrder &&
			l.ResourceType == model.AuditResourceOrder &&
			l.ResourceID == 77 &&
			l.ActorUserID == 10
	})).Return(nil)
	repos.orders.On("FindDetail", mock.Anything, int64(77)).
		Return(model.Order{ID: 77, Status: model.OrderStatusCancelled}, nil)

	out, err := uc.CancelOrder(context.Background(), 77, 10)
	assert.NoError(t, err)
	assert.Equal(t, "CANCELLED", out.Status)

	repos.tables.AssertExpectations(t)
	repos.auditLogs.AssertExpectations(t)
}

// テーブルなし注文のキャンセルはテーブル操作なし
func TestCancelOrder_NoTable(t *testing.T) {
	repos, uc := newFixture()

	repos.orders.On("FindByID", mock.Anything, int64(77)).
		Return(model.Order{ID: 77, TableID: nil, Status: model.OrderStatusConfirmed}, nil)
	repos.orders.On("UpdateStatus", mock.Anything, int64(77), model.OrderStatusCancelled, false).
		Return(nil)
	repos.auditLogs.On("Create", mock.Anything, mock.Anything).Return(nil)
	repos.orders.On("FindDetail", mock.Anything, int64(77)).
		Return(model.Order{ID: 77, Status: model.OrderStatusCancelled}, nil)

	_, err := uc.CancelOrder(context.Background(), 77, 10)
	assert.NoError(t, err)

	repos.tables.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// =====================
// CheckTableStatus
// =====================

func TestCheckTableStatus_Consistent(t *testing.T) {
	repos, uc := newFixture()

	repos.tables.On("FindByID", mock.Anything, int64(1)).
		Return(model.Table{ID: 1, Number: "3", Status: model.TableStatusOccupied}, nil)
	repos.orders.On("FindActiveByTableID", mock.Anything, int64(1)).
		Return(model.Order{ID: 77, Status: model.OrderStatusConfirmed}, true, nil)

	out, err := uc.CheckTableStatus(context.Background(), 1)
	assert.NoError(t, err)
	assert.True(t, out.ShouldBeOccupied)
	assert.True(t, out.StatusMatches)
	assert.Len(t, out.ActiveOrders, 1)
}

// OCCUPIEDなのにアクティブ注文がない＝ずれ
func TestCheckTableStatus_StaleOccupied(t *testing.T) {
	repos, uc := newFixture()

	repos.tables.On("FindByID", mock.Anything, int64(1)).
		Return(model.Table{ID: 1, Number: "3", Status: model.TableStatusOccupied}, nil)
	repos.orders.On("FindActiveByTableID", mock.Anything, int64(1)).
		Return(model.Order{}, false, nil)

	out, err := uc.CheckTableStatus(context.Background(), 1)
	assert.NoError(t, err)
	assert.False(t, out.ShouldBeOccupied)
	assert.False(t, out.StatusMatches)
	assert.Empty(t, out.ActiveOrders)
}

// RESERVEDは注文由来の状態ではないので常に不一致
func TestCheckTableStatus_ReservedNeverMatches(t *testing.T) {
	repos, uc := newFixture()

	repos.tables.On("FindByID", mock.Anything, int64(1)).
		Return(model.Table{ID: 1, Number: "3", Status: model.TableStatusReserved}, nil)
	repos.orders.On("FindActiveByTableID", mock.Anything, int64(1)).
		Return(model.Order{}, false, nil)

	out, err := uc.CheckTableStatus(context.Background(), 1)
	assert.NoError(t, err)
	assert.False(t, out.StatusMatches)
}

// =====================
// ForceReleaseTable
// =====================

func TestForceReleaseTable_ReleasesUnconditionally(t *testing.T) {
	repos, uc := newFixture()

	staffID := int64(10)
	repos.tables.On("FindByID", mock.Anything, int64(1)).
		Return(model.Table{ID: 1, Number: "3", Status: model.TableStatusOccupied}, nil)
	repos.tables.On("UpdateStatus", mock.Anything, int64(1), model.TableStatusFree, (*int64)(nil)).
		Return(nil)
	repos.auditLogs.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionForceReleaseTable &&
			l.ResourceType == model.AuditResourceTable &&
			l.ResourceID == 1 &&
			l.ActorUserID == staffID
	})).Return(nil)

	out, err := uc.ForceReleaseTable(context.Background(), 1, staffID)
	assert.NoError(t, err)
	assert.Equal(t, model.TableStatusFree, out.Status)
	assert.Nil(t, out.AssignedToID)

	//アクティブ注文の有無は見ない
	repos.orders.AssertNotCalled(t, "FindActiveByTableID", mock.Anything, mock.Anything)

	repos.tables.AssertExpectations(t)
	repos.auditLogs.AssertExpectations(t)
}

func TestForceReleaseTable_NotFound(t *testing.T) {
	repos, uc := newFixture()

	repos.tables.On("FindByID", mock.Anything, int64(99)).
		Return(model.Table{}, repo.ErrNotFound)

	_, err := uc.ForceReleaseTable(context.Background(), 99, 10)
	assertHTTPStatus(t, err, 404)
}

// =====================
// GetTableCompleteState
// =====================

func TestGetTableCompleteState_WithActiveOrder(t *testing.T) {
	repos, uc := newFixture()

	assigned := int64(10)
	repos.tables.On("FindByID", mock.Anything, int64(1)).
		Return(model.Table{ID: 1, Number: "3", Capacity: 4, Status: model.TableStatusOccupied, AssignedToID: &assigned}, nil)
	repos.orders.On("FindActiveByTableID", mock.Anything, int64(1)).
		Return(model.Order{ID: 77, Status: model.OrderStatusConfirmed, Total: 2500}, true, nil)

	out, err := uc.GetTableCompleteState(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, "OCCUPIED", out.Status)
	assert.Equal(t, &assigned, out.AssignedToID)
	if assert.Len(t, out.ActiveOrders, 1) {
		assert.True(t, out.ActiveOrders[0].IsActive)
		assert.False(t, out.ActiveOrders[0].IsReceived)
	}
}

// =====================
// ListOrders
// =====================

func TestListOrders_NormalizesPagingAndFilters(t *testing.T) {
	repos, uc := newFixture()

	tableID := int64(1)
	repos.orders.On("List", mock.Anything, repo.OrderListFilter{
		Page: 1, Limit: 50, Status: "CONFIRMED", TableID: &tableID,
	}).Return([]model.Order{{ID: 77, Status: model.OrderStatusConfirmed}}, int64(1), nil)

	out, err := uc.ListOrders(context.Background(), usecase.OrderListInput{
		Page: 0, Limit: 0, Status: "CONFIRMED", TableID: &tableID,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 50, out.Limit)

	repos.orders.AssertExpectations(t)
}

func TestGetTableCompleteState_EmptyOrdersIsNotNil(t *testing.T) {
	repos, uc := newFixture()

	repos.tables.On("FindByID", mock.Anything, int64(1)).
		Return(model.Table{ID: 1, Number: "3", Status: model.TableStatusFree}, nil)
	repos.orders.On("FindActiveByTableID", mock.Anything, int64(1)).
		Return(model.Order{}, false, nil)

	out, err := uc.GetTableCompleteState(context.Background(), 1)
	assert.NoError(t, err)
	assert.NotNil(t, out.ActiveOrders)
	assert.Empty(t, out.ActiveOrders)
}
