package handler

import (
	"sohbet/internal/usecase"
)

var (
	authHandler   *AuthHandler
	userHandler   *UserHandler
	groupHandler  *GroupHandler
	healthHandler *HealthHandler
)

func Setup(
	authUseCase *usecase.AuthUseCase,
	userUseCase *usecase.UserUseCase,
	groupUseCase *usecase.GroupUseCase,
) {
	authHandler = NewAuthHandler(authUseCase)
	userHandler = NewUserHandler(userUseCase)
	groupHandler = NewGroupHandler(groupUseCase)
	healthHandler = NewHealthHandler()
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetGroupHandler() *GroupHandler {
	return groupHandler
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}
