package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.TableOrderUsecase
}

func NewOrderHandler(uc *usecase.TableOrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderItemRequest struct {
	ProductID int64  `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	Notes     string `json:"notes"`
	//新旧どちらのキーでも受ける（adicionaisIds / adicionais）
	Customizations json.RawMessage `json:"customizations"`
}

type OrderCreateRequest struct {
	TableID int64              `json:"table_id"`
	Notes   string             `json:"notes"`
	Items   []OrderItemRequest `json:"items"`
}

type PaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
	Amount        *int64 `json:"amount"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.GET("", h.list)
	g.POST("", h.create)
	g.POST("/:id/payment", h.payment)
	g.POST("/:id/received", h.received)
	g.POST("/:id/cancel", h.cancel)
}

func (h *OrderHandler) list(c echo.Context) error {
	if _, ok := getUserIDFromContext(c); !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	in := usecase.OrderListInput{
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 50),
		Status: c.QueryParam("status"),
	}
	if raw := c.QueryParam("table_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid table_id"})
		}
		in.TableID = &id
	}

	out, err := h.uc.ListOrders(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//カスタマイズの互換パースはここ（I/Oの縁）で済ませて、
	//usecaseには正規化済みのID一覧だけを渡す
	items := make([]usecase.CreateOrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		custom, err := model.ParseCustomizations(string(it.Customizations))
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid customizations"})
		}
		items = append(items, usecase.CreateOrderItemInput{
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			Notes:         it.Notes,
			AdicionaisIDs: custom.AdicionaisIDs,
		})
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), usecase.CreateOrderInput{
		StaffUserID: userID,
		TableID:     req.TableID,
		Notes:       req.Notes,
		Items:       items,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) payment(c echo.Context) error {
	if _, ok := getUserIDFromContext(c); !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req PaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.ProcessPayment(c.Request().Context(), id, model.PaymentMethod(req.PaymentMethod), req.Amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) received(c echo.Context) error {
	if _, ok := getUserIDFromContext(c); !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.MarkOrderAsReceived(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.CancelOrder(c.Request().Context(), id, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	userID, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}
