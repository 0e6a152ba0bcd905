package notifier

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/loanzzz/loanzzz/pkg/auth"
)

func newTestServer(t *testing.T, hub *Hub) string {
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("Failed to decode frame: %v", err)
	}
	return event
}

func TestAuthFrameAttachesSubscriber(t *testing.T) {
	hub := NewHub(nil)
	url := newTestServer(t, hub)

	conn := dial(t, url)
	assert.NoError(t, conn.WriteJSON(map[string]string{"type": "auth", "userId": "7"}))

	event := readEvent(t, conn)
	assert.Equal(t, "auth:success", event.Type)

	// Registration is synchronous with the auth reply.
	assert.Equal(t, 1, hub.Subscribers(7))
}

func TestTokenAuth(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	hub := NewHub(jwtService)
	url := newTestServer(t, hub)

	token, err := jwtService.GenerateJWT(42, time.Now().Add(time.Hour))
	assert.NoError(t, err)

	conn := dial(t, url)
	assert.NoError(t, conn.WriteJSON(map[string]string{"type": "auth", "token": token}))

	event := readEvent(t, conn)
	assert.Equal(t, "auth:success", event.Type)
	assert.Equal(t, 1, hub.Subscribers(42))
}

func TestNotifyUserReachesOnlyThatUser(t *testing.T) {
	hub := NewHub(nil)
	url := newTestServer(t, hub)

	alice := dial(t, url)
	assert.NoError(t, alice.WriteJSON(map[string]string{"type": "auth", "userId": "1"}))
	readEvent(t, alice)

	bob := dial(t, url)
	assert.NoError(t, bob.WriteJSON(map[string]string{"type": "auth", "userId": "2"}))
	readEvent(t, bob)

	hub.NotifyUser(1, "balance:update", map[string]any{"xec": 100})

	event := readEvent(t, alice)
	assert.Equal(t, "balance:update", event.Type)
	assert.False(t, event.Timestamp.IsZero())

	bob.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := bob.ReadMessage()
	assert.Error(t, err, "bob must not receive alice's event")
}

func TestBroadcastReachesEveryone(t *testing.T) {
	hub := NewHub(nil)
	url := newTestServer(t, hub)

	alice := dial(t, url)
	assert.NoError(t, alice.WriteJSON(map[string]string{"type": "auth", "userId": "1"}))
	readEvent(t, alice)

	bob := dial(t, url)
	assert.NoError(t, bob.WriteJSON(map[string]string{"type": "auth", "userId": "2"}))
	readEvent(t, bob)

	hub.Broadcast("prices:update", map[string]any{"XEC": 0.00003})

	assert.Equal(t, "prices:update", readEvent(t, alice).Type)
	assert.Equal(t, "prices:update", readEvent(t, bob).Type)
}

func TestUnauthenticatedFrameIsRejected(t *testing.T) {
	hub := NewHub(nil)
	url := newTestServer(t, hub)

	conn := dial(t, url)
	assert.NoError(t, conn.WriteJSON(map[string]string{"type": "subscribe"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "connection closes without a valid auth frame")
	assert.Equal(t, 0, hub.Subscribers(0))
}

func TestDisconnectDropsSubscriber(t *testing.T) {
	hub := NewHub(nil)
	url := newTestServer(t, hub)

	conn := dial(t, url)
	assert.NoError(t, conn.WriteJSON(map[string]string{"type": "auth", "userId": "9"}))
	readEvent(t, conn)
	assert.Equal(t, 1, hub.Subscribers(9))

	conn.Close()

	assert.Eventually(t, func() bool {
		return hub.Subscribers(9) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
