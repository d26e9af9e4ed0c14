package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin 配下。メニュー管理・在庫調整・監査ログ閲覧。
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/admin")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))
	g.Use(middleware.AdminRoleGuard())

	g.POST("/products", h.createProduct)
	g.PATCH("/products/:id/availability", h.setAvailability)
	g.POST("/products/:id/stock", h.adjustStock)
	g.POST("/categories", h.createCategory)
	g.POST("/adicionais", h.createAdicional)
	g.GET("/audit-logs", h.listAuditLogs)
}

type AdminProductCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Stock       int64  `json:"stock"`
	CategoryID  *int64 `json:"category_id"`
	IsAvailable bool   `json:"is_available"`
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req AdminProductCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	id, err := h.uc.AdminCreateProduct(c.Request().Context(), userID, usecase.AdminCreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]int64{"id": id})
}

type AvailabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}

func (h *AdminProductHandler) setAvailability(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req AvailabilityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.AdminSetAvailability(c.Request().Context(), userID, id, req.IsAvailable); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type StockAdjustRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
}

func (h *AdminProductHandler) adjustStock(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req StockAdjustRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.AdminAdjustStock(c.Request().Context(), userID, usecase.AdminAdjustStockInput{
		ProductID: id,
		Delta:     req.Delta,
		Reason:    req.Reason,
	}); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type CategoryCreateRequest struct {
	Name string `json:"name"`
}

func (h *AdminProductHandler) createCategory(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req CategoryCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	id, err := h.uc.AdminCreateCategory(c.Request().Context(), userID, req.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]int64{"id": id})
}

type AdicionalCreateRequest struct {
	Name        string `json:"name"`
	Price       *int64 `json:"price"`
	Description string `json:"description"`
}

func (h *AdminProductHandler) createAdicional(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req AdicionalCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	id, err := h.uc.AdminCreateAdicional(c.Request().Context(), userID, usecase.AdminCreateAdicionalInput{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]int64{"id": id})
}

func (h *AdminProductHandler) listAuditLogs(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	f := repository.AuditLogFilter{
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}
	if raw := c.QueryParam("action"); raw != "" {
		a := model.AuditAction(raw)
		f.Action = &a
	}
	if raw := c.QueryParam("actor_user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid actor_user_id"})
		}
		f.ActorUserID = &id
	}
	if raw := c.QueryParam("resource_type"); raw != "" {
		rt := model.AuditResourceType(raw)
		f.ResourceType = &rt
	}

	items, err := h.uc.AdminListAuditLogs(c.Request().Context(), userID, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
