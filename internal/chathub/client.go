// Package chathub holds the server side of the realtime core: the presence
// registry, the per-connection WebSocket channel and the message relay.
package chathub

import "directchat/backend/internal/models"

// Connection is one live realtime session. The registry and the relay only
// ever talk to connections through this interface, so tests can simulate
// any number of sessions without sockets.
type Connection interface {
	// ID is unique per session, assigned by the server, never reused.
	ID() string
	// UserID is resolved at handshake and fixed for the connection lifetime.
	UserID() string
	// TrySend enqueues evt without blocking. It reports false when the
	// connection is closed or its buffer is full.
	TrySend(evt models.Event) bool
	// Close shuts the session down; safe to call more than once.
	Close()
}
