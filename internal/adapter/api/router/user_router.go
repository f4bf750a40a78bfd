package router

import (
	"github.com/labstack/echo/v4"

	"sohbet/internal/adapter/api/handler"
	"sohbet/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	userHandler := handler.GetUserHandler()

	users := e.Group("/v1/users")
	users.Use(authMiddleware.Authenticate)

	users.GET("/me", userHandler.GetMe)
	users.PUT("/me/profile", userHandler.SetupProfile)
	users.GET("", userHandler.ListOthers)
}
