package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /tables のAPI。テーブル選択・状態確認・強制解放。
type TableHandler struct {
	uc *usecase.TableOrderUsecase
}

func NewTableHandler(uc *usecase.TableOrderUsecase) *TableHandler {
	return &TableHandler{uc: uc}
}

func (h *TableHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/tables")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.GET("", h.list)
	g.POST("/:id/select", h.selectTable)
	g.GET("/:id/status", h.checkStatus)
	g.GET("/:id/state", h.completeState)
	g.POST("/:id/items", h.addProducts)

	//強制解放は管理者のみ
	admin := e.Group("/tables")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))
	admin.Use(middleware.AdminRoleGuard())
	admin.POST("/:id/release", h.forceRelease)
}

func (h *TableHandler) list(c echo.Context) error {
	out, err := h.uc.ListTables(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *TableHandler) selectTable(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.SelectTable(c.Request().Context(), id, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *TableHandler) checkStatus(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.CheckTableStatus(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *TableHandler) completeState(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.GetTableCompleteState(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type AddProductsRequest struct {
	Products []struct {
		ProductID int64  `json:"product_id"`
		Quantity  int64  `json:"quantity"`
		Price     int64  `json:"price"`
		Notes     string `json:"notes"`
	} `json:"products"`
}

func (h *TableHandler) addProducts(c echo.Context) error {
	if _, ok := getUserIDFromContext(c); !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req AddProductsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	products := make([]usecase.AddProductInput, 0, len(req.Products))
	for _, p := range req.Products {
		products = append(products, usecase.AddProductInput{
			ProductID: p.ProductID,
			Quantity:  p.Quantity,
			Price:     p.Price,
			Notes:     p.Notes,
		})
	}

	out, err := h.uc.AddProductsToOrder(c.Request().Context(), id, products)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *TableHandler) forceRelease(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.ForceReleaseTable(c.Request().Context(), id, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func parseIDParam(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
