package ws

import (
	"encoding/json"
	"time"

	"ekehi_engine/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
	sendBuffer = 64
)

type Client struct {
	UserID int64
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub
	Done   chan struct{}
}

func NewClient(userID int64, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		Hub:    hub,
		Done:   make(chan struct{}),
	}
}

// Run registers the client, starts the writer and blocks in the reader until
// the connection goes away.
func (c *Client) Run() {
	c.Hub.register(c)
	go c.writePump()

	// handshake so clients and tests know events will now be delivered
	c.queue(Message{Type: MsgReady, Payload: ReadyPayload{UserID: c.UserID}})

	c.readPump()
}

func (c *Client) queue(m Message) {
	msg, err := json.Marshal(m)
	if err != nil {
		return
	}
	// hub lock guards Send against a concurrent unregister
	c.Hub.mu.RLock()
	defer c.Hub.mu.RUnlock()
	if _, ok := c.Hub.clients[c.UserID][c]; !ok {
		return
	}
	select {
	case c.Send <- msg:
	default:
		logger.Warn("ws send buffer full", "user_id", c.UserID, "type", m.Type)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister(c)
		_ = c.Conn.Close()
		close(c.Done)
	}()

	c.Conn.SetReadLimit(4096)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "user_id", c.UserID, "error", err)
			}
			return
		}

		var in ClientMessage
		if err := json.Unmarshal(raw, &in); err != nil {
			c.queue(Message{Type: MsgError, Payload: ErrorPayload{Message: "invalid message"}})
			continue
		}
		switch in.Type {
		case MsgPing:
			c.queue(Message{Type: MsgPong})
		default:
			// the stream is push only
			c.queue(Message{Type: MsgError, Payload: ErrorPayload{Message: "unknown message type"}})
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write error", "user_id", c.UserID, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
