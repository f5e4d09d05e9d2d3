package chathub_test

import (
	"sync"

	"directchat/backend/internal/models"
)

// MockConn is a test double for chathub.Connection that records every event
// it is asked to carry.
type MockConn struct {
	id     string
	userID string

	mu       sync.Mutex
	events   []models.Event
	full     bool
	closed   bool
	closeCnt int
}

func newMockConn(id, userID string) *MockConn {
	return &MockConn{id: id, userID: userID}
}

func (c *MockConn) ID() string     { return c.id }
func (c *MockConn) UserID() string { return c.userID }

func (c *MockConn) TrySend(evt models.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.full {
		return false
	}
	c.events = append(c.events, evt)
	return true
}

func (c *MockConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.closeCnt++
}

func (c *MockConn) setFull(full bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.full = full
}

// Events returns a copy of everything received so far.
func (c *MockConn) Events() []models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Event(nil), c.events...)
}

// PresenceUpdates decodes the presence-update events in arrival order.
func (c *MockConn) PresenceUpdates() [][]string {
	var out [][]string
	for _, evt := range c.Events() {
		if evt.Type != models.EventPresenceUpdate {
			continue
		}
		online, err := evt.DecodePresence()
		if err != nil {
			panic(err)
		}
		out = append(out, online)
	}
	return out
}

// Messages decodes the new-message events in arrival order.
func (c *MockConn) Messages() []models.Message {
	var out []models.Message
	for _, evt := range c.Events() {
		if evt.Type != models.EventNewMessage {
			continue
		}
		msg, err := evt.DecodeMessage()
		if err != nil {
			panic(err)
		}
		out = append(out, msg)
	}
	return out
}

// LastOnline is the most recent online set this connection has seen.
func (c *MockConn) LastOnline() []string {
	updates := c.PresenceUpdates()
	if len(updates) == 0 {
		return nil
	}
	return updates[len(updates)-1]
}
