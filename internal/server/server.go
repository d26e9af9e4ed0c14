package server

import (
	"app/internal/config"
	"app/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func Start(cfg config.Config, userRepo repository.UserRepository, h Handlers) error {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	RegisterRoutes(e, cfg, userRepo, h)

	return e.Start(":" + cfg.Port)
}
