// Package http provides the HTTP server implementation for the chat service.
package http

import (
	"github.com/crispai/sitechat/internal/service"
	v1 "github.com/crispai/sitechat/internal/transport/http/v1"
	"github.com/crispai/sitechat/internal/transport/ws"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewServer creates and configures the public HTTP server.
// It serves the chat API and, when wsServer is non-nil, the chat socket.
func NewServer(svc *service.Service, wsServer *ws.Server) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("64K"))

	// Handlers
	v1Handler := v1.NewHandler(svc)

	// Register Routes
	v1Handler.RegisterRoutes(e)
	if wsServer != nil {
		e.GET("/chat/ws", wsServer.HandleWebSocket)
	}

	return e
}
