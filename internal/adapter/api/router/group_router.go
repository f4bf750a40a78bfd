package router

import (
	"github.com/labstack/echo/v4"

	"sohbet/internal/adapter/api/handler"
	"sohbet/internal/adapter/api/middleware"
)

func SetupGroupRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	groupHandler := handler.GetGroupHandler()

	groups := e.Group("/v1/groups")
	groups.Use(authMiddleware.Authenticate)

	groups.POST("", groupHandler.CreateGroup)
	groups.GET("", groupHandler.ListMyGroups)
	groups.POST("/join", groupHandler.JoinGroup)
	groups.GET("/:id", groupHandler.GetGroup)
	groups.DELETE("/:id/members/me", groupHandler.LeaveGroup)
}
