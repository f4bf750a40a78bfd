package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"sohbet/internal/domain/entity"
	"sohbet/internal/usecase"
	"sohbet/pkg/response"
)

type ChatHandler struct {
	chatUseCase   *usecase.ChatUseCase
	rosterUseCase *usecase.RosterUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase, rosterUseCase *usecase.RosterUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase:   chatUseCase,
		rosterUseCase: rosterUseCase,
	}
}

func threadKindParam(c echo.Context) (entity.ThreadKind, error) {
	kind := entity.ThreadKind(c.Param("kind"))
	if kind != entity.ThreadKindDirect && kind != entity.ThreadKindGroup {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Unknown thread kind")
	}
	return kind, nil
}

// GetRoster returns the merged sidebar listing. An optional q parameter
// filters by title.
func (h *ChatHandler) GetRoster(c echo.Context) error {
	uid := c.Get("uid").(string)

	entries, err := h.rosterUseCase.Snapshot(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	if query := c.QueryParam("q"); query != "" {
		entries = usecase.FilterRoster(entries, query)
	}
	return response.Success(c, entries)
}

func (h *ChatHandler) GetMessages(c echo.Context) error {
	uid := c.Get("uid").(string)
	kind, err := threadKindParam(c)
	if err != nil {
		return err
	}

	messages, err := h.chatUseCase.ListMessages(c.Request().Context(), kind, c.Param("id"), uid, c.QueryParam("receiver"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, messages)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	uid := c.Get("uid").(string)
	kind, err := threadKindParam(c)
	if err != nil {
		return err
	}

	var req struct {
		Text     string `json:"text" validate:"required,max=4000"`
		Receiver string `json:"receiver,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	msg, err := h.chatUseCase.SendMessage(c.Request().Context(), uid, usecase.SendMessageInput{
		Kind:     kind,
		ThreadID: c.Param("id"),
		Text:     req.Text,
		Receiver: req.Receiver,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, msg)
}

func (h *ChatHandler) MarkThreadRead(c echo.Context) error {
	uid := c.Get("uid").(string)
	kind, err := threadKindParam(c)
	if err != nil {
		return err
	}

	marked, err := h.chatUseCase.MarkThreadRead(c.Request().Context(), kind, c.Param("id"), uid)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int{"marked": marked})
}

func (h *ChatHandler) ToggleReaction(c echo.Context) error {
	uid := c.Get("uid").(string)
	kind, err := threadKindParam(c)
	if err != nil {
		return err
	}

	var req struct {
		Emoji string `json:"emoji" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	msg, err := h.chatUseCase.ToggleReaction(c.Request().Context(), kind, c.Param("id"), c.Param("messageId"), req.Emoji, uid)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, msg)
}

// UploadMedia accepts a multipart attachment and posts it as a message.
func (h *ChatHandler) UploadMedia(c echo.Context) error {
	uid := c.Get("uid").(string)
	kind, err := threadKindParam(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing file")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable file")
	}
	defer src.Close()

	msg, err := h.chatUseCase.SendMediaMessage(c.Request().Context(), uid, src, usecase.SendMediaInput{
		Kind:        kind,
		ThreadID:    c.Param("id"),
		Receiver:    c.FormValue("receiver"),
		ContentType: fileHeader.Header.Get("Content-Type"),
		Caption:     c.FormValue("caption"),
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, msg)
}
