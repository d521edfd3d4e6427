// Package hub tracks WebSocket watchers and fans frames out to the watchers
// of a conversation.
package hub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const sendBuffer = 256

// Connection represents a single WebSocket watcher.
type Connection struct {
	ID             string
	ConversationID string
	Conn           *websocket.Conn
	Send           chan []byte

	mu        sync.Mutex
	closeOnce sync.Once
}

// WriteMessage writes to the socket under the connection lock.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the socket write deadline.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.SetWriteDeadline(t)
}

// Close closes the socket once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}

// conversationMessage is a payload addressed to every watcher of a conversation.
type conversationMessage struct {
	conversationID string
	data           []byte
}

// Hub manages all watcher connections.
type Hub struct {
	connections   map[string]*Connection
	conversations map[string]map[string]bool

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan conversationMessage
	done       chan struct{}

	logger *slog.Logger
	mu     sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		connections:   make(map[string]*Connection),
		conversations: make(map[string]map[string]bool),
		register:      make(chan *Connection),
		unregister:    make(chan *Connection),
		broadcast:     make(chan conversationMessage, sendBuffer),
		done:          make(chan struct{}),
		logger:        logger,
	}
}

// Run is the hub's main loop. It returns when ctx is done, closing every
// connection's send channel. Run must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, conn := range h.connections {
				close(conn.Send)
				delete(h.connections, id)
			}
			h.conversations = make(map[string]map[string]bool)
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			if h.conversations[conn.ConversationID] == nil {
				h.conversations[conn.ConversationID] = make(map[string]bool)
			}
			h.conversations[conn.ConversationID][conn.ID] = true
			h.mu.Unlock()
			h.logger.Info("watcher registered", "conn_id", conn.ID, "conversation_id", conn.ConversationID)

		case conn := <-h.unregister:
			h.remove(conn)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*Connection
			for connID := range h.conversations[msg.conversationID] {
				conn := h.connections[connID]
				select {
				case conn.Send <- msg.data:
				default:
					slow = append(slow, conn)
				}
			}
			h.mu.RUnlock()
			for _, conn := range slow {
				h.logger.Warn("watcher buffer full, closing", "conn_id", conn.ID)
				h.remove(conn)
			}
		}
	}
}

func (h *Hub) remove(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[conn.ID]; !ok {
		return
	}
	delete(h.connections, conn.ID)
	if ids := h.conversations[conn.ConversationID]; ids != nil {
		delete(ids, conn.ID)
		if len(ids) == 0 {
			delete(h.conversations, conn.ConversationID)
		}
	}
	close(conn.Send)
	h.logger.Info("watcher unregistered", "conn_id", conn.ID)
}

// NewConnection creates a connection watching conversationID. It is not
// registered yet.
func (h *Hub) NewConnection(ws *websocket.Conn, conversationID string) *Connection {
	return &Connection{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Conn:           ws,
		Send:           make(chan []byte, sendBuffer),
	}
}

// Register adds a connection. Blocks until Run accepts it. Once Run has
// returned the connection is refused and its send channel closed.
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
		h.logger.Debug("hub stopped, refusing watcher", "conn_id", conn.ID)
	}
}

// Unregister removes a connection and closes its send channel. After Run has
// returned it is a no-op; Run closed every send channel on exit.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Broadcast queues data for every watcher of conversationID. The payload is
// dropped when the queue is full so producers never block on watchers.
func (h *Hub) Broadcast(conversationID string, data []byte) {
	select {
	case h.broadcast <- conversationMessage{conversationID: conversationID, data: data}:
	default:
		h.logger.Warn("broadcast queue full, dropping payload", "conversation_id", conversationID)
	}
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// ConversationCount returns the number of conversations with watchers.
func (h *Hub) ConversationCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conversations)
}
