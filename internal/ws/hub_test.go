package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ekehi_engine/internal/events"
	"ekehi_engine/internal/logger"
	"ekehi_engine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newWSServer(t *testing.T, hub *Hub) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.SetForTest(zap.NewNop())
	service.InitJWT("ws-test-secret")

	r := gin.New()
	r.GET("/ws", HandleWS(hub, ""))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string, userID int64) *websocket.Conn {
	t.Helper()
	token, err := service.GenerateJWT(userID, "tester", time.Hour)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// wait for the handshake, the client is registered once it arrives
	msg := readMessage(t, conn)
	require.Equal(t, MsgReady, msg.Type)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var m Message
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestHub_DeliversEventsToOwnerOnly(t *testing.T) {
	hub := NewHub()
	bus := events.NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.Run(ctx, bus))

	url := newWSServer(t, hub)
	alice := dial(t, url, 1)
	bob := dial(t, url, 2)

	require.NoError(t, bus.Publish(ctx, events.Channel, events.Event{
		Type:    events.EventAdBonusGranted,
		UserID:  1,
		Payload: map[string]any{"reward": 0.5},
	}))
	require.NoError(t, bus.Publish(ctx, events.Channel, events.Event{
		Type:    events.EventSessionClaimed,
		UserID:  2,
		Payload: map[string]any{"reward": 2.0},
	}))

	m := readMessage(t, alice)
	assert.Equal(t, events.EventAdBonusGranted, m.Type)
	assert.Equal(t, map[string]any{"reward": 0.5}, m.Payload)

	m = readMessage(t, bob)
	assert.Equal(t, events.EventSessionClaimed, m.Type)
}

func TestHub_SeveralDevicesPerUser(t *testing.T) {
	hub := NewHub()
	url := newWSServer(t, hub)

	phone := dial(t, url, 7)
	tablet := dial(t, url, 7)
	assert.Equal(t, 2, hub.Connected(7))

	hub.Dispatch(events.Event{Type: events.EventStreakUpdated, UserID: 7, Payload: map[string]any{"current_streak": 3.0}})

	for _, conn := range []*websocket.Conn{phone, tablet} {
		m := readMessage(t, conn)
		assert.Equal(t, events.EventStreakUpdated, m.Type)
	}

	require.NoError(t, phone.Close())
	assert.Eventually(t, func() bool { return hub.Connected(7) == 1 }, 3*time.Second, 10*time.Millisecond)
}

func TestClient_PingPong(t *testing.T) {
	hub := NewHub()
	url := newWSServer(t, hub)
	conn := dial(t, url, 3)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, MsgPong, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"claim"}`)))
	m := readMessage(t, conn)
	assert.Equal(t, MsgError, m.Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	assert.Equal(t, MsgError, readMessage(t, conn).Type)
}

func TestHandleWS_RejectsBadToken(t *testing.T) {
	hub := NewHub()
	url := newWSServer(t, hub)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=garbage", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}
