package handler

import (
	"context"
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "sohbet/internal/infrastructure/websocket"
	"sohbet/internal/usecase"
	"sohbet/pkg/errors"
)

type WebSocketHandler struct {
	wsManager     *ws.Manager
	chatUseCase   *usecase.ChatUseCase
	rosterUseCase *usecase.RosterUseCase
	presence      usecase.PresenceStore
	heartbeat     time.Duration
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Restrict in production
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, chatUseCase *usecase.ChatUseCase, rosterUseCase *usecase.RosterUseCase, presence usecase.PresenceStore, heartbeat time.Duration) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:     wsManager,
		chatUseCase:   chatUseCase,
		rosterUseCase: rosterUseCase,
		presence:      presence,
		heartbeat:     heartbeat,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	userID, ok := c.Get("uid").(string)
	if !ok || userID == "" {
		return errors.Unauthorized("Authentication required", nil)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := ws.NewClient(userID, conn)
	h.wsManager.Register <- client

	go client.WritePump()

	// The request context dies with the handler; the session lives as
	// long as the socket, so it gets its own.
	session := ws.NewSession(client, h.wsManager, h.chatUseCase, h.rosterUseCase, h.presence, h.heartbeat)
	session.Run(context.Background())

	return nil
}
