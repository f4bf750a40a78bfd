package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sohbet/internal/domain/entity"
	"sohbet/internal/usecase"
)

// Session drives one client's live view: the roster feed, the selected
// thread's message and typing subscriptions, and the composer's typing
// debounce. All of it is torn down when the connection drops.
type Session struct {
	client   *Client
	manager  *Manager
	chatUC   *usecase.ChatUseCase
	rosterUC *usecase.RosterUseCase
	presence usecase.PresenceStore

	heartbeatEvery time.Duration

	mu         sync.Mutex
	selected   *threadSub
	lastRoster []*usecase.RosterEntry
	query      string
}

type threadSub struct {
	kind     entity.ThreadKind
	threadID string
	receiver string
	tracker  *usecase.TypingTracker
	cancels  []func()
}

func NewSession(client *Client, manager *Manager, chatUC *usecase.ChatUseCase, rosterUC *usecase.RosterUseCase, presence usecase.PresenceStore, heartbeatEvery time.Duration) *Session {
	return &Session{
		client:         client,
		manager:        manager,
		chatUC:         chatUC,
		rosterUC:       rosterUC,
		presence:       presence,
		heartbeatEvery: heartbeatEvery,
	}
}

// Run blocks until the connection closes. Presence registration happens
// before anything is delivered: a session that cannot arrange its own
// offline fallback never shows as online.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	userID := s.client.UserID

	if err := s.presence.Connect(ctx, userID); err != nil {
		log.Printf("Presence registration failed for %s, closing session: %v", userID, err)
		return
	}
	defer func() {
		s.deselect()
		if err := s.presence.Disconnect(context.Background(), userID); err != nil {
			log.Printf("Presence cleanup failed for %s: %v", userID, err)
		}
		s.manager.Unregister <- s.client
	}()

	roster, err := s.rosterUC.Open(ctx, userID)
	if err != nil {
		log.Printf("Failed to open roster for %s: %v", userID, err)
		return
	}
	defer roster.Close()

	go s.forwardRoster(roster)
	go s.heartbeatLoop(ctx, userID)

	for {
		_, raw, err := s.client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Read error for %s: %v", userID, err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendError("Malformed message")
			continue
		}
		s.dispatch(ctx, msg)
	}
}

func (s *Session) dispatch(ctx context.Context, msg WSMessage) {
	switch msg.Type {
	case MessageTypePing:
		s.send(MessageTypePong, nil)

	case MessageTypeSelectThread:
		var data SelectThreadData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.sendError("Malformed thread selection")
			return
		}
		s.selectThread(ctx, data)

	case MessageTypeDeselectThread:
		s.deselect()

	case MessageTypeKeystroke:
		s.mu.Lock()
		sub := s.selected
		s.mu.Unlock()
		if sub != nil {
			sub.tracker.Keystroke()
		}

	case MessageTypeSendMessage:
		var data SendMessageData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.sendError("Malformed message payload")
			return
		}
		s.sendMessage(ctx, data)

	case MessageTypeMarkRead:
		s.mu.Lock()
		sub := s.selected
		s.mu.Unlock()
		if sub == nil {
			return
		}
		if _, err := s.chatUC.MarkThreadRead(ctx, sub.kind, sub.threadID, s.client.UserID); err != nil {
			log.Printf("Mark read failed for %s in thread %s: %v", s.client.UserID, sub.threadID, err)
		}

	case MessageTypeToggleReaction:
		var data ToggleReactionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.sendError("Malformed reaction payload")
			return
		}
		s.mu.Lock()
		sub := s.selected
		s.mu.Unlock()
		if sub == nil {
			s.sendError("No thread selected")
			return
		}
		if _, err := s.chatUC.ToggleReaction(ctx, sub.kind, sub.threadID, data.MessageID, data.Emoji, s.client.UserID); err != nil {
			s.sendError(errMessage(err))
		}

	case MessageTypeSearch:
		var data SearchData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		s.mu.Lock()
		s.query = data.Query
		snapshot := s.lastRoster
		query := s.query
		s.mu.Unlock()
		s.send(MessageTypeRoster, usecase.FilterRoster(snapshot, query))

	default:
		s.sendError("Unknown message type: " + msg.Type)
	}
}

func (s *Session) selectThread(ctx context.Context, data SelectThreadData) {
	kind := entity.ThreadKind(data.Kind)
	if kind != entity.ThreadKindDirect && kind != entity.ThreadKindGroup {
		s.sendError("Unknown thread kind")
		return
	}

	s.deselect()

	userID := s.client.UserID
	messages, err := s.chatUC.ListMessages(ctx, kind, data.ThreadID, userID, data.Receiver)
	if err != nil {
		s.sendError(errMessage(err))
		return
	}

	tracker := usecase.NewTypingTracker(func(typing bool) {
		publishCtx, cancelPublish := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelPublish()
		if err := s.chatUC.PublishTyping(publishCtx, kind, data.ThreadID, userID, typing); err != nil {
			log.Printf("Typing publish failed for %s in thread %s: %v", userID, data.ThreadID, err)
		}
	})

	sub := &threadSub{
		kind:     kind,
		threadID: data.ThreadID,
		receiver: data.Receiver,
		tracker:  tracker,
	}

	msgCh, cancelMsgs, err := s.chatUC.WatchMessages(ctx, kind, data.ThreadID)
	if err != nil {
		tracker.Close()
		s.sendError("Failed to subscribe to messages")
		return
	}
	threadCh, cancelThread, err := s.chatUC.WatchThread(ctx, kind, data.ThreadID)
	if err != nil {
		cancelMsgs()
		tracker.Close()
		s.sendError("Failed to subscribe to thread updates")
		return
	}
	sub.cancels = []func(){cancelMsgs, cancelThread}

	s.mu.Lock()
	s.selected = sub
	s.mu.Unlock()

	s.send(MessageTypeMessages, messages)
	if _, err := s.chatUC.MarkThreadRead(ctx, kind, data.ThreadID, userID); err != nil {
		log.Printf("Initial mark read failed for thread %s: %v", data.ThreadID, err)
	}

	go s.forwardMessages(ctx, sub, msgCh)
	go s.forwardThread(ctx, sub, threadCh)
}

func (s *Session) forwardMessages(ctx context.Context, sub *threadSub, ch <-chan []*entity.Message) {
	for messages := range ch {
		if !s.isSelected(sub) {
			return
		}
		s.send(MessageTypeMessages, messages)

		// Opening the thread acknowledges it; the same applies to
		// messages arriving while it stays open.
		if _, err := s.chatUC.MarkThreadRead(ctx, sub.kind, sub.threadID, s.client.UserID); err != nil {
			log.Printf("Live mark read failed for thread %s: %v", sub.threadID, err)
		}
	}
}

type threadUpdate struct {
	ThreadID    string              `json:"thread_id"`
	Typing      []string            `json:"typing"`
	LastMessage *entity.LastMessage `json:"last_message,omitempty"`
	MemberCount int                 `json:"member_count,omitempty"`
}

func (s *Session) forwardThread(ctx context.Context, sub *threadSub, ch <-chan *entity.Thread) {
	userID := s.client.UserID
	for thread := range ch {
		if !s.isSelected(sub) {
			return
		}

		if sub.kind == entity.ThreadKindGroup {
			member := false
			for _, m := range thread.Members {
				if m == userID {
					member = true
					break
				}
			}
			if !member {
				s.send(MessageTypeGroupLeft, map[string]string{"thread_id": sub.threadID})
				s.deselect()
				return
			}
		}

		s.send(MessageTypeThreadUpdate, threadUpdate{
			ThreadID:    sub.threadID,
			Typing:      thread.TypingOthers(userID),
			LastMessage: thread.LastMessage,
			MemberCount: len(thread.Members),
		})
	}
}

func (s *Session) sendMessage(ctx context.Context, data SendMessageData) {
	s.mu.Lock()
	sub := s.selected
	s.mu.Unlock()
	if sub == nil {
		s.sendError("No thread selected")
		return
	}

	// The typing stop must reach the store before the message itself so
	// the receiver never sees both at once.
	sub.tracker.MessageSent()

	_, err := s.chatUC.SendMessage(ctx, s.client.UserID, usecase.SendMessageInput{
		Kind:     sub.kind,
		ThreadID: sub.threadID,
		Text:     data.Text,
		Receiver: sub.receiver,
	})
	if err != nil {
		s.sendError(errMessage(err))
	}
}

func (s *Session) forwardRoster(roster *usecase.Roster) {
	for snapshot := range roster.Updates {
		s.mu.Lock()
		s.lastRoster = snapshot
		query := s.query
		s.mu.Unlock()
		s.send(MessageTypeRoster, usecase.FilterRoster(snapshot, query))
	}
}

func (s *Session) heartbeatLoop(ctx context.Context, userID string) {
	ticker := time.NewTicker(s.heartbeatEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.presence.Heartbeat(ctx, userID); err != nil {
				log.Printf("Heartbeat failed for %s: %v", userID, err)
			}
		}
	}
}

func (s *Session) isSelected(sub *threadSub) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected == sub
}

func (s *Session) deselect() {
	s.mu.Lock()
	sub := s.selected
	s.selected = nil
	s.mu.Unlock()

	if sub == nil {
		return
	}
	sub.tracker.Close()
	for _, cancel := range sub.cancels {
		cancel()
	}
}

func (s *Session) send(msgType string, data interface{}) {
	out := encode(msgType, data)
	if out == nil {
		return
	}
	select {
	case <-s.client.Done():
		// Replaced by a newer connection; nothing is reading anymore.
		return
	default:
	}
	select {
	case s.client.Send <- out:
	default:
		log.Printf("Dropping %s event for slow client %s", msgType, s.client.UserID)
	}
}

func (s *Session) sendError(message string) {
	s.send(MessageTypeError, ErrorData{Message: message})
}

func errMessage(err error) string {
	return err.Error()
}
