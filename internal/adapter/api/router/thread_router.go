package router

import (
	"github.com/labstack/echo/v4"

	"sohbet/internal/adapter/api/handler"
	"sohbet/internal/adapter/api/middleware"
)

func SetupThreadRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	threads := e.Group("/v1/threads")
	threads.Use(authMiddleware.Authenticate)

	threads.GET("", chatHandler.GetRoster)
	threads.GET("/:kind/:id/messages", chatHandler.GetMessages)
	threads.POST("/:kind/:id/messages", chatHandler.SendMessage)
	threads.POST("/:kind/:id/media", chatHandler.UploadMedia)
	threads.PUT("/:kind/:id/read", chatHandler.MarkThreadRead)
	threads.PUT("/:kind/:id/messages/:messageId/reaction", chatHandler.ToggleReaction)
}
