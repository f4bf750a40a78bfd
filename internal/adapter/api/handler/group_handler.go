package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"sohbet/internal/usecase"
	"sohbet/pkg/response"
)

type GroupHandler struct {
	groupUseCase *usecase.GroupUseCase
}

func NewGroupHandler(groupUseCase *usecase.GroupUseCase) *GroupHandler {
	return &GroupHandler{
		groupUseCase: groupUseCase,
	}
}

func (h *GroupHandler) CreateGroup(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req usecase.CreateGroupInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	group, err := h.groupUseCase.CreateGroup(c.Request().Context(), uid, req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, group)
}

func (h *GroupHandler) JoinGroup(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req usecase.JoinGroupInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	group, err := h.groupUseCase.JoinByCode(c.Request().Context(), uid, req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, group)
}

func (h *GroupHandler) LeaveGroup(c echo.Context) error {
	uid := c.Get("uid").(string)

	if err := h.groupUseCase.LeaveGroup(c.Request().Context(), c.Param("id"), uid); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"status": "left"})
}

func (h *GroupHandler) GetGroup(c echo.Context) error {
	group, err := h.groupUseCase.GetGroup(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, group)
}

func (h *GroupHandler) ListMyGroups(c echo.Context) error {
	uid := c.Get("uid").(string)

	groups, err := h.groupUseCase.ListGroupsFor(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, groups)
}
