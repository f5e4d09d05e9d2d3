package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"directchat/backend/internal/apperr"
	"directchat/backend/internal/models"

	"github.com/gorilla/websocket"
)

const closeWait = time.Second

// Channel is the client end of the realtime connection. Events are read on
// one goroutine and handed to the subscribed handlers in arrival order.
type Channel struct {
	conn *websocket.Conn
	subs *subscriptions

	done      chan struct{}
	closeOnce sync.Once
	log       *slog.Logger
}

// DialChannel opens the realtime connection at url presenting token.
// A rejected handshake yields apperr.ErrUnauthenticated. No event is read
// before Start, so handlers subscribed in between see the first presence update.
func DialChannel(ctx context.Context, url, token string, log *slog.Logger) (*Channel, error) {
	header := http.Header{"Authorization": {"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, apperr.ErrUnauthenticated
		}
		return nil, fmt.Errorf("dial realtime channel: %w", err)
	}

	c := &Channel{
		conn: conn,
		subs: newSubscriptions(),
		done: make(chan struct{}),
		log:  log.With("component", "channel"),
	}
	return c, nil
}

// Start begins reading events.
func (c *Channel) Start() {
	go c.readLoop()
}

// Subscribe registers h for events of type evt until the returned func is called.
func (c *Channel) Subscribe(evt models.EventType, h Handler) func() {
	return c.subs.add(evt, h)
}

// Done is closed once the connection is gone.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Close sends a normal closure and tears the connection down.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
		err = c.conn.Close()
	})
	return err
}

func (c *Channel) readLoop() {
	defer close(c.done)
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) && !errors.Is(err, net.ErrClosed) {
				c.log.Warn("realtime channel read failed", "error", err)
			}
			return
		}

		var evt models.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			c.log.Debug("undecodable frame ignored", "error", err)
			continue
		}
		c.subs.dispatch(evt)
	}
}
