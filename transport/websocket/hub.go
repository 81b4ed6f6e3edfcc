package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/rescuebot/game/mission"
	"github.com/wricardo/mcp-training/rescuebot/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Pending broadcasts before new ones are dropped.
	broadcastBuffer = 1024
)

// EventStateUpdate is the event name of a full state snapshot
const EventStateUpdate = "state_update"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message represents a WebSocket message
type Message struct {
	SessionID string             `json:"session_id"`
	State     *service.StateView `json:"state,omitempty"`
	Event     string             `json:"event,omitempty"`
	Data      any                `json:"data,omitempty"`
}

// Client represents a WebSocket client
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub maintains the set of active clients and broadcasts messages per session
type Hub struct {
	// Registered clients by lower-cased session ID
	sessions map[string]map[*Client]bool
	mu       sync.RWMutex

	// Outbound messages for clients
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done     chan struct{}
	stopOnce sync.Once

	log *zap.Logger
}

// NewHub creates a new WebSocket hub. A nil logger discards output.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run starts the hub's event loop and returns when ctx is done.
// Connected clients are closed on return.
func (h *Hub) Run(ctx context.Context) {
	defer h.stop()
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Done is closed once the hub has stopped
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		for _, clients := range h.sessions {
			for client := range clients {
				h.removeLocked(client)
			}
		}
		h.mu.Unlock()
		close(h.done)
	})
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: strings.ToLower(sessionID),
	}

	select {
	case client.hub.register <- client:
	case <-h.done:
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// BroadcastToSession queues a state snapshot for all clients in a session
func (h *Hub) BroadcastToSession(sessionID string, state *service.StateView) {
	h.enqueue(&Message{
		SessionID: sessionID,
		State:     state,
		Event:     EventStateUpdate,
	})
}

// BroadcastEvent queues a custom event for all clients in a session
func (h *Hub) BroadcastEvent(sessionID string, event string, data any) {
	h.enqueue(&Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
	})
}

// Notifier adapts the hub to mission events of one session
func (h *Hub) Notifier(sessionID string) mission.Notifier {
	return mission.NotifierFunc(func(ev mission.Event) {
		h.BroadcastEvent(sessionID, string(ev.Type), ev)
	})
}

// ClientCount returns the number of clients connected to a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[strings.ToLower(sessionID)])
}

// enqueue never blocks: mission progress must not wait on slow clients
func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		h.log.Warn("broadcast queue full, dropping message",
			zap.String("session_id", message.SessionID), zap.String("event", message.Event))
	}
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true

	h.log.Debug("client registered",
		zap.String("session_id", client.sessionID), zap.Int("clients", len(h.sessions[client.sessionID])))
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.sessions[client.sessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)

	// Clean up empty sessions
	if len(clients) == 0 {
		delete(h.sessions, client.sessionID)
	}
	h.log.Debug("client unregistered",
		zap.String("session_id", client.sessionID), zap.Int("remaining", len(clients)))
}

// broadcastMessage sends a message to all clients in a session
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error("failed to marshal broadcast message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.sessions[strings.ToLower(message.SessionID)] {
		select {
		case client.send <- data:
		default:
			// Client's send channel is full, drop it
			h.removeLocked(client)
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Incoming messages are ignored; reading keeps the connection alive
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket error", zap.Error(err))
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
