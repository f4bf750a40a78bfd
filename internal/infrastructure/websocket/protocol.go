package websocket

import (
	"encoding/json"
	"time"
)

// Inbound message types.
const (
	MessageTypePing           = "ping"
	MessageTypeSelectThread   = "select_thread"
	MessageTypeDeselectThread = "deselect_thread"
	MessageTypeKeystroke      = "keystroke"
	MessageTypeSendMessage    = "send_message"
	MessageTypeMarkRead       = "mark_read"
	MessageTypeToggleReaction = "toggle_reaction"
	MessageTypeSearch         = "search"
)

// Outbound message types.
const (
	MessageTypePong         = "pong"
	MessageTypeMessages     = "messages"
	MessageTypeThreadUpdate = "thread_update"
	MessageTypeRoster       = "roster"
	MessageTypeGroupLeft    = "group_left"
	MessageTypeError        = "error"
)

type WSMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

type SelectThreadData struct {
	Kind     string `json:"kind"`
	ThreadID string `json:"thread_id"`
	Receiver string `json:"receiver,omitempty"`
}

type SendMessageData struct {
	Text string `json:"text"`
}

type ToggleReactionData struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type SearchData struct {
	Query string `json:"query"`
}

type ErrorData struct {
	Message string `json:"message"`
}

func encode(msgType string, data interface{}) []byte {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	out, err := json.Marshal(WSMessage{
		Type:      msgType,
		Data:      payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil
	}
	return out
}
