package chathub

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"directchat/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// WebSocketClient implements Connection over a gorilla WebSocket.
type WebSocketClient struct {
	id     string
	userID string

	Conn     *websocket.Conn
	Registry *Registry

	send      chan models.Event
	done      chan struct{}
	closeOnce sync.Once
	log       *slog.Logger
}

// NewWebSocketClient wraps an upgraded connection whose user has already
// been resolved. buffer bounds the outbound queue.
func NewWebSocketClient(conn *websocket.Conn, userID string, registry *Registry, buffer int, log *slog.Logger) *WebSocketClient {
	id := uuid.NewString()
	return &WebSocketClient{
		id:       id,
		userID:   userID,
		Conn:     conn,
		Registry: registry,
		send:     make(chan models.Event, buffer),
		done:     make(chan struct{}),
		log:      log.With("conn_id", id, "user_id", userID),
	}
}

func (c *WebSocketClient) ID() string     { return c.id }
func (c *WebSocketClient) UserID() string { return c.userID }

func (c *WebSocketClient) TrySend(evt models.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- evt:
		return true
	default:
		return false
	}
}

// Close stops the write pump, which closes the socket; the read pump then
// fails and unregisters the client.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Run starts both pumps. The caller registers the client first.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// readPump keeps the read deadline alive and detects teardown. Clients have
// nothing to say after the handshake, so inbound frames are only logged.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.Registry.Unregister(c)
		c.Close()
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("connection lost", "error", err)
			}
			return
		}

		var evt models.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			c.log.Debug("undecodable frame ignored", "error", err)
			continue
		}
		c.log.Debug("inbound event ignored", "event", evt.Type)
	}
}

// writePump writes queued events, one frame each, and pings the peer.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case evt := <-c.send:
			if err := c.write(evt); err != nil {
				c.log.Warn("write failed", "error", err)
				return
			}

			// Flush whatever queued up meanwhile before going back to select.
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.write(<-c.send); err != nil {
					c.log.Warn("write failed", "error", err)
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *WebSocketClient) write(evt models.Event) error {
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteJSON(evt)
}
