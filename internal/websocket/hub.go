package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"portfolio-backend/internal/events"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/session"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type tokenParser interface {
	Parse(token string) (uuid.UUID, error)
}

type sessionStore interface {
	Get(id uuid.UUID) (*session.Session, bool)
	View(s *session.Session) models.ConversationView
}

// client serializes writes; gorilla connections support one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

func (c *client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*client
	cancelFuncs map[uuid.UUID]func()
	broker      events.Broker
	tokens      tokenParser
	sessions    sessionStore
	log         *slog.Logger
}

func NewHub(broker events.Broker, tokens tokenParser, sessions sessionStore, log *slog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*client),
		cancelFuncs: make(map[uuid.UUID]func()),
		broker:      broker,
		tokens:      tokens,
		sessions:    sessions,
		log:         log,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sessionID, err := h.tokens.Parse(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	s, ok := h.sessions.Get(sessionID)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := &client{conn: conn}
	if err := h.registerConnection(sessionID, c); err != nil {
		h.log.Error("websocket subscribe failed", "session_id", sessionID, "error", err)
		c.writeJSON(wsError("INTERNAL_ERROR", "Live updates unavailable"))
		conn.Close()
		return
	}

	// Subscribe confirms before returning, so no update between it and this
	// write is lost.
	if err := c.writeJSON(models.WSMessage{
		Type:    models.WSTypeConversationUpdate,
		Payload: h.sessions.View(s),
	}); err != nil {
		h.unregisterConnection(sessionID, c)
		return
	}

	go func() {
		defer h.unregisterConnection(sessionID, c)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var msg models.ClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				c.writeJSON(wsError("VALIDATION_ERROR", "Malformed message"))
				continue
			}
			h.handleClientMessage(sessionID, c, msg)
		}
	}()
}

func (h *Hub) handleClientMessage(sessionID uuid.UUID, c *client, msg models.ClientMessage) {
	s, ok := h.sessions.Get(sessionID)
	if !ok {
		c.writeJSON(wsError("SESSION_NOT_FOUND", "Session has ended"))
		return
	}

	switch msg.Type {
	case models.ClientTypeSubmit:
		// A rejected submit changes nothing and publishes nothing.
		s.Conversation.Submit(msg.Text)
	case models.ClientTypeDraft:
		s.Conversation.SetDraft(msg.Text)
	default:
		c.writeJSON(wsError("VALIDATION_ERROR", "Unknown message type: "+msg.Type))
	}
}

func wsError(code, message string) models.WSMessage {
	return models.WSMessage{
		Type:    models.WSTypeError,
		Payload: models.WSError{Code: code, Message: message},
	}
}

func (h *Hub) registerConnection(sessionID uuid.UUID, c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Start broker subscription if this is the first connection for this session
	if len(h.connections[sessionID]) == 0 {
		ch, cancel, err := h.broker.Subscribe(context.Background(), events.SessionChannel(sessionID))
		if err != nil {
			return err
		}
		h.cancelFuncs[sessionID] = cancel
		go h.forward(sessionID, ch)
	}

	h.connections[sessionID] = append(h.connections[sessionID], c)

	h.log.Info("websocket connected", "session_id", sessionID, "total", len(h.connections[sessionID]))
	return nil
}

func (h *Hub) unregisterConnection(sessionID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.conn.Close()

	conns := h.connections[sessionID]
	for i, existing := range conns {
		if existing == c {
			h.connections[sessionID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	// If no more connections, cancel the subscription
	if len(h.connections[sessionID]) == 0 {
		delete(h.connections, sessionID)
		if cancel, ok := h.cancelFuncs[sessionID]; ok {
			cancel()
			delete(h.cancelFuncs, sessionID)
		}
	}

	h.log.Info("websocket disconnected", "session_id", sessionID)
}

func (h *Hub) forward(sessionID uuid.UUID, ch <-chan []byte) {
	for payload := range ch {
		h.broadcast(sessionID, payload)
	}
}

func (h *Hub) broadcast(sessionID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.connections[sessionID] {
		if err := c.write(websocket.TextMessage, data); err != nil {
			h.log.Debug("websocket write failed", "session_id", sessionID, "error", err)
		}
	}
}

// Connections reports how many sockets are open for a session.
func (h *Hub) Connections(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[sessionID])
}
