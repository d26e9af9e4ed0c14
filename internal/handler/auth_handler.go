package handler

import (
	"errors"
	"net/http"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	auth "app/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

const refreshCookieName = "refresh_token"

// /auth のAPI。スタッフ登録とログイン。
type AuthHandler struct {
	cfg        config.Config
	registerUC *auth.RegisterUserUsecase
	loginUC    *auth.LoginUsecase
	refreshTTL time.Duration
}

func NewAuthHandler(cfg config.Config, registerUC *auth.RegisterUserUsecase, loginUC *auth.LoginUsecase, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		cfg:        cfg,
		registerUC: registerUC,
		loginUC:    loginUC,
		refreshTTL: refreshTTL,
	}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/register", h.register)
	e.POST("/auth/login", h.login)
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     roleFromString(req.Role),
	})
	if err != nil {
		return writeAuthError(c, err)
	}

	out.User.PasswordHash = ""
	return c.JSON(http.StatusCreated, out.User)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, side, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return writeAuthError(c, err)
	}

	//リフレッシュトークンはCookieでのみ返す
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    side.PlainRefreshToken,
		Path:     "/auth",
		Expires:  time.Now().Add(h.refreshTTL),
		HttpOnly: true,
		Secure:   h.cfg.GoEnv == "production",
		SameSite: http.SameSiteStrictMode,
	})

	return c.JSON(http.StatusOK, out)
}

// 空ならusecase側でSTAFFに倒す
func roleFromString(s string) model.Role {
	return model.Role(s)
}

// 認証系のドメインエラーをHTTPステータスへ写す
func writeAuthError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUserInactive):
		//どちらが違うかは教えない
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "email already exists"})
	case errors.Is(err, auth.ErrInvalidEmailFormat),
		errors.Is(err, auth.ErrNameRequired),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidRole):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
