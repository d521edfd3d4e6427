// Package http assembles the Echo server.
package http

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/scholar/internal/service"
	v1 "github.com/xiaot623/scholar/internal/transport/http/v1"
	"github.com/xiaot623/scholar/internal/transport/ws"
)

// NewServer creates the HTTP server with the agent, knowledge, history and
// watcher routes.
func NewServer(svc *service.Service, wsServer *ws.Server, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	v1.NewHandler(svc, logger).RegisterRoutes(e)
	wsServer.RegisterRoutes(e)

	return e
}
