package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// メニュー（商品・カテゴリ・追加）と在庫の管理。
type ProductUsecase struct {
	productRepo   repo.ProductRepository
	categoryRepo  repo.CategoryRepository
	adicionalRepo repo.AdicionalRepository
	inventoryRepo repo.InventoryRepository
	auditRepo     repo.AuditLogRepository
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	categoryRepo repo.CategoryRepository,
	adicionalRepo repo.AdicionalRepository,
	inventoryRepo repo.InventoryRepository,
	auditRepo repo.AuditLogRepository,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		adicionalRepo: adicionalRepo,
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page          int
	Limit         int
	Q             string
	CategoryID    *int64
	OnlyAvailable bool
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:          in.Page,
		Limit:         in.Limit,
		Q:             strings.TrimSpace(in.Q),
		CategoryID:    in.CategoryID,
		OnlyAvailable: in.OnlyAvailable,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

type AdminCreateProductInput struct {
	Name        string
	Description string
	Price       int64
	Stock       int64
	CategoryID  *int64
	IsAvailable bool
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminCreateProductInput) (int64, error) {
	if adminUserID <= 0 {
		return 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.Name) == "" {
		return 0, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Price <= 0 {
		return 0, NewHTTPError(http.StatusBadRequest, "price must be positive")
	}
	if in.Stock < 0 {
		return 0, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}

	id, err := u.productRepo.Create(ctx, model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
		IsAvailable: in.IsAvailable,
	})
	if err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateProduct,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   id,
		Detail:       auditDetail(map[string]interface{}{"created": true, "name": in.Name}),
		CreatedAt:    time.Now(),
	}); err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return id, nil
}

func (u *ProductUsecase) AdminSetAvailability(ctx context.Context, adminUserID int64, productID int64, available bool) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	if err := u.productRepo.SetAvailability(ctx, productID, available); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateProduct,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   productID,
		Detail:       auditDetail(map[string]interface{}{"is_available": available}),
		CreatedAt:    time.Now(),
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

type AdminAdjustStockInput struct {
	ProductID int64
	Delta     int64
	Reason    string
}

// 在庫調整。注文作成は在庫を見ない（販売可否はis_availableで管理）。
func (u *ProductUsecase) AdminAdjustStock(ctx context.Context, adminUserID int64, in AdminAdjustStockInput) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if in.Delta == 0 {
		return NewHTTPError(http.StatusBadRequest, "delta must not be zero")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return NewHTTPError(http.StatusBadRequest, "reason required")
	}

	if err := u.inventoryRepo.AdjustStock(ctx, in.ProductID, in.Delta); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.inventoryRepo.CreateAdjustment(ctx, model.InventoryAdjustment{
		ProductID:   in.ProductID,
		AdminUserID: adminUserID,
		Delta:       in.Delta,
		Reason:      strings.TrimSpace(in.Reason),
		CreatedAt:   time.Now(),
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionAdjustStock,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   in.ProductID,
		Detail:       auditDetail(map[string]interface{}{"delta": in.Delta, "reason": in.Reason}),
		CreatedAt:    time.Now(),
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *ProductUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	items, err := u.categoryRepo.List(ctx)
	if err != nil {
		return []model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

func (u *ProductUsecase) AdminCreateCategory(ctx context.Context, adminUserID int64, name string) (int64, error) {
	if adminUserID <= 0 {
		return 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(name) == "" {
		return 0, NewHTTPError(http.StatusBadRequest, "name required")
	}

	id, err := u.categoryRepo.Create(ctx, model.Category{Name: strings.TrimSpace(name)})
	if err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return id, nil
}

func (u *ProductUsecase) ListAdicionais(ctx context.Context) ([]model.Adicional, error) {
	items, err := u.adicionalRepo.List(ctx)
	if err != nil {
		return []model.Adicional{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

type AdminCreateAdicionalInput struct {
	Name        string
	Price       *int64
	Description string
}

func (u *ProductUsecase) AdminCreateAdicional(ctx context.Context, adminUserID int64, in AdminCreateAdicionalInput) (int64, error) {
	if adminUserID <= 0 {
		return 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.Name) == "" {
		return 0, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Price != nil && *in.Price < 0 {
		return 0, NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}

	id, err := u.adicionalRepo.Create(ctx, model.Adicional{
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price,
		Description: in.Description,
	})
	if err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return id, nil
}

func (u *ProductUsecase) AdminListAuditLogs(ctx context.Context, adminUserID int64, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if adminUserID <= 0 {
		return []model.AuditLog{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return []model.AuditLog{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}
