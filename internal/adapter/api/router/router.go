package router

import (
	"github.com/labstack/echo/v4"

	"sohbet/internal/adapter/api/handler"
	"sohbet/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, chatHandler *handler.ChatHandler, wsHandler *handler.WebSocketHandler) {
	SetupHealthRouter(e)
	SetupAuthRouter(e, authMiddleware)
	SetupUserRouter(e, authMiddleware)
	SetupThreadRouter(e, chatHandler, authMiddleware)
	SetupGroupRouter(e, authMiddleware)
	SetupWebSocketRouter(e, wsHandler, authMiddleware)
}
