package websocket

import (
	"context"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one authenticated WebSocket connection. Send is never
// closed: late writes from a session that lost a race with teardown
// must be dropped, not panic. Shutdown is signalled through done.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	done     chan struct{}
	doneOnce sync.Once
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 64),
		done:   make(chan struct{}),
	}
}

// shutdown signals the client's pumps to stop and closes the
// underlying connection so its read loop unblocks. Safe to call more
// than once.
func (c *Client) shutdown() {
	c.doneOnce.Do(func() {
		close(c.done)
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}

// Done is closed once the client has been replaced or unregistered.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Manager tracks the active connections per user.
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				// A reconnect replaces the previous connection for the
				// same user. The old session still owns goroutines that
				// may write to its client, so it is signalled to tear
				// itself down rather than having its channel yanked
				// out from under it.
				if old, ok := m.clients[client.UserID]; ok {
					old.shutdown()
				}
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				log.Printf("Client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if current, ok := m.clients[client.UserID]; ok && current == client {
					delete(m.clients, client.UserID)
				}
				m.mutex.Unlock()
				client.shutdown()
				log.Printf("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) SendToUser(userID string, message []byte) {
	m.mutex.RLock()
	client, ok := m.clients[userID]
	m.mutex.RUnlock()

	if ok {
		select {
		case client.Send <- message:
		default:
			log.Printf("Dropping message for slow client %s", userID)
		}
	}
}

func (m *Manager) IsConnected(userID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.clients[userID]
	return ok
}

// WritePump drains the send channel onto the wire. Runs as the
// connection's single writer and exits when the client shuts down.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		select {
		case <-c.done:
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.Send:
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Write to client %s failed: %v", c.UserID, err)
				return
			}
		}
	}
}
