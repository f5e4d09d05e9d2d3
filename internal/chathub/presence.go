package chathub

import (
	"log/slog"
	"sort"
	"sync"

	"directchat/backend/internal/models"

	"github.com/samber/lo"
)

// Registry is the single source of truth for who is online: at most one
// connection per user, last connection wins.
//
// Every mutation and the broadcast it triggers run under mu. Broadcasting only
// enqueues on each connection (TrySend never blocks), so a slow peer cannot
// stall the registry and snapshots reach every peer in mutation order.
type Registry struct {
	mu    sync.Mutex
	conns map[string]Connection
	log   *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		conns: make(map[string]Connection),
		log:   log.With("component", "presence"),
	}
}

// Register maps conn.UserID() to conn, replacing any earlier session of the
// same user, then broadcasts the online set to every registered connection.
// The replaced connection, if any, is returned; it stays open but no longer
// receives relayed messages or presence updates.
func (r *Registry) Register(conn Connection) Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.conns[conn.UserID()]
	r.conns[conn.UserID()] = conn

	if previous != nil && previous.ID() != conn.ID() {
		r.log.Info("session superseded", "user_id", conn.UserID(), "old_conn_id", previous.ID(), "conn_id", conn.ID())
	} else {
		r.log.Info("user online", "user_id", conn.UserID(), "conn_id", conn.ID())
	}
	r.broadcastLocked()

	if previous == nil || previous.ID() == conn.ID() {
		return nil
	}
	return previous
}

// Unregister removes the mapping only if it still points at conn. A late
// disconnect of a superseded session therefore leaves the newer one alone.
// It reports whether the mapping was removed; only then is the online set
// broadcast.
func (r *Registry) Unregister(conn Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.conns[conn.UserID()]
	if !ok || current.ID() != conn.ID() {
		r.log.Debug("stale disconnect ignored", "user_id", conn.UserID(), "conn_id", conn.ID())
		return false
	}

	delete(r.conns, conn.UserID())
	r.log.Info("user offline", "user_id", conn.UserID(), "conn_id", conn.ID())
	r.broadcastLocked()
	return true
}

// Lookup returns the live connection of userID.
func (r *Registry) Lookup(userID string) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[userID]
	return conn, ok
}

// Online returns the sorted online set.
func (r *Registry) Online() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.onlineLocked()
}

// Len is the number of users online.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.conns)
}

func (r *Registry) onlineLocked() []string {
	online := lo.Keys(r.conns)
	sort.Strings(online)
	return online
}

func (r *Registry) broadcastLocked() {
	evt := models.NewPresenceEvent(r.onlineLocked())
	for userID, conn := range r.conns {
		if !conn.TrySend(evt) {
			r.log.Warn("presence update dropped", "user_id", userID, "conn_id", conn.ID())
		}
	}
}
