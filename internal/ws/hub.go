package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/SAP-F-2025/test-session/internal/session"
	"github.com/SAP-F-2025/test-session/internal/utils"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

const (
	MessageTick         = "tick"
	MessageNotification = "notification"
	MessageSubmitted    = "submitted"
	MessageClosed       = "closed"
	MessagePing         = "ping"
	MessagePong         = "pong"
)

type Message struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

type TickPayload struct {
	Remaining int `json:"remaining"`
}

type outbound struct {
	sessionID string  // empty reaches every client
	client    *Client // set for a reply to one client
	data      []byte
}

// Hub fans session events out to the websocket clients watching a session.
// Notifications without a session go to every client.
type Hub struct {
	upgrader websocket.Upgrader
	logger   utils.Logger

	mu      sync.RWMutex
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	done       chan struct{}
	stopOnce   sync.Once
}

type Client struct {
	hub       *Hub
	id        string
	sessionID string
	socket    *websocket.Conn
	send      chan []byte
}

func NewHub(logger utils.Logger) *Hub {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:     logger.With("component", "ws"),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, sendBuffer),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done or Stop is called.
func (h *Hub) Run(ctx context.Context) {
	defer h.Stop()
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client registered", "client_id", client.id, "session_id", client.sessionID, "clients", total)
		case client := <-h.unregister:
			h.remove(client)
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.logger.Debug("Client unregistered", "client_id", client.id, "session_id", client.sessionID, "clients", len(h.clients))
	}
}

func (h *Hub) deliver(msg outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if msg.client != nil && client != msg.client {
			continue
		}
		if msg.sessionID != "" && client.sessionID != msg.sessionID {
			continue
		}
		select {
		case client.send <- msg.data:
		default:
			h.logger.Warn("Client send buffer full, closing connection", "client_id", client.id)
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// ClientCount reports the clients watching sessionID, or all clients when
// sessionID is empty.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for client := range h.clients {
		if sessionID == "" || client.sessionID == sessionID {
			n++
		}
	}
	return n
}

// Broadcast queues a message for the clients of sessionID.
func (h *Hub) Broadcast(sessionID, messageType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: messageType, SessionID: sessionID, Payload: payload})
	if err != nil {
		h.logger.Error("Failed to marshal message", "type", messageType, "error", err)
		return
	}
	h.enqueue(outbound{sessionID: sessionID, data: data})
}

// reply queues a message for one client only.
func (h *Hub) reply(client *Client, messageType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: messageType, SessionID: client.sessionID, Payload: payload})
	if err != nil {
		h.logger.Error("Failed to marshal message", "type", messageType, "error", err)
		return
	}
	h.enqueue(outbound{client: client, data: data})
}

func (h *Hub) enqueue(msg outbound) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// HandleSessionEvent forwards session events to the session's clients.
func (h *Hub) HandleSessionEvent(ctx context.Context, e session.Event) {
	switch e.Kind {
	case session.EventTick:
		h.Broadcast(e.SessionID, MessageTick, TickPayload{Remaining: e.Remaining})
	case session.EventSubmitted:
		h.Broadcast(e.SessionID, MessageSubmitted, e.Result)
	case session.EventClosed:
		h.Broadcast(e.SessionID, MessageClosed, nil)
	}
	if e.Notification != nil {
		h.Broadcast(e.SessionID, MessageNotification, e.Notification)
	}
}

// Notify sends a notification to its session, or to everyone when it has none.
func (h *Hub) Notify(ctx context.Context, n models.Notification) {
	h.Broadcast(n.SessionID, MessageNotification, n)
}

// ServeWS upgrades the request and subscribes the connection to sessionID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	client := &Client{
		hub:       h,
		id:        uuid.NewString(),
		sessionID: sessionID,
		socket:    conn,
		send:      make(chan []byte, sendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()
	return nil
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.socket.Close()
	}()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket read error", "client_id", c.id, "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.logger.Debug("Ignoring malformed message", "client_id", c.id, "error", err)
			continue
		}
		if msg.Type == MessagePing {
			c.hub.reply(c, MessagePong, nil)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
