package notifier

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/loanzzz/loanzzz/pkg/auth"
)

const (
	writeWait      = 10 * time.Second
	authWait       = 30 * time.Second
	maxMessageSize = 1024
	sendBuffer     = 32
)

// Event is the frame pushed to subscribers.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type authFrame struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	userID int64
}

// Hub is the user-indexed subscriber multimap. Delivery is best-effort,
// at-most-once: a failed or slow channel is dropped, never retried.
type Hub struct {
	jwt auth.JWTServiceInterface

	mu      sync.Mutex
	clients map[int64]map[*client]struct{}

	upgrader websocket.Upgrader
}

func NewHub(jwtService auth.JWTServiceInterface) *Hub {
	return &Hub{
		jwt:     jwtService,
		clients: make(map[int64]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the connection and waits for the auth frame. The channel
// only joins the multimap after a valid auth frame; if the first frame is not
// one, the connection is closed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(authWait))

	var frame authFrame
	if err := conn.ReadJSON(&frame); err != nil || frame.Type != "auth" {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "auth required"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	userID, err := h.resolveUser(frame)
	if err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid auth"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
	}
	h.register(c)

	conn.SetReadDeadline(time.Time{})
	go c.writePump(h)
	go c.readPump(h)

	h.sendTo(c, Event{Type: "auth:success", Data: map[string]any{"userId": userID}, Timestamp: time.Now().UTC()})
}

func (h *Hub) resolveUser(frame authFrame) (int64, error) {
	if frame.Token != "" && h.jwt != nil {
		claims, err := h.jwt.ValidateToken(frame.Token)
		if err != nil {
			return 0, err
		}
		return claims.UserID, nil
	}
	return strconv.ParseInt(frame.UserID, 10, 64)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if ok {
		if _, present := set[c]; present {
			delete(set, c)
			close(c.send)
			if len(set) == 0 {
				delete(h.clients, c.userID)
			}
		}
	}
	h.mu.Unlock()
	c.conn.Close()
}

// NotifyUser pushes an event to every channel the user has open.
func (h *Hub) NotifyUser(userID int64, eventType string, data any) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()})
	if err != nil {
		zap.L().Error("can't marshal notification", zap.Error(err))
		return
	}

	h.mu.Lock()
	var dropped []*client
	for c := range h.clients[userID] {
		select {
		case c.send <- payload:
		default:
			dropped = append(dropped, c)
		}
	}
	h.mu.Unlock()

	for _, c := range dropped {
		h.unregister(c)
	}
}

// Broadcast pushes an event to every connected channel.
func (h *Hub) Broadcast(eventType string, data any) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()})
	if err != nil {
		zap.L().Error("can't marshal broadcast", zap.Error(err))
		return
	}

	h.mu.Lock()
	var dropped []*client
	for _, set := range h.clients {
		for c := range set {
			select {
			case c.send <- payload:
			default:
				dropped = append(dropped, c)
			}
		}
	}
	h.mu.Unlock()

	for _, c := range dropped {
		h.unregister(c)
	}
}

func (h *Hub) sendTo(c *client, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// Subscribers returns the number of open channels for a user.
func (h *Hub) Subscribers(userID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

func (c *client) writePump(h *Hub) {
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.unregister(c)
			return
		}
	}
}

func (c *client) readPump(h *Hub) {
	defer h.unregister(c)
	for {
		// Incoming frames after auth carry no meaning; reading keeps close
		// handshakes and connection errors visible.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
