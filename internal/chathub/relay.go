package chathub

import (
	"log/slog"

	"directchat/backend/internal/models"
)

// Locator finds the live connection of a user.
type Locator interface {
	Lookup(userID string) (Connection, bool)
}

// Relay pushes already-persisted messages to online recipients. It is a
// latency optimisation only: a missed push is recovered by the recipient's
// next history fetch, so nothing here is retried or queued.
type Relay struct {
	Presence Locator
	log      *slog.Logger
}

func NewRelay(presence Locator, log *slog.Logger) *Relay {
	return &Relay{
		Presence: presence,
		log:      log.With("component", "relay"),
	}
}

// Deliver pushes msg to the receiver's connection and reports whether the
// push was enqueued. An offline receiver is not an error. The sender's own
// connection never gets the message back.
func (r *Relay) Deliver(msg models.Message) bool {
	if msg.ReceiverID == msg.SenderID {
		return false
	}

	conn, ok := r.Presence.Lookup(msg.ReceiverID)
	if !ok {
		r.log.Debug("recipient offline", "message_id", msg.ID, "receiver_id", msg.ReceiverID)
		return false
	}

	if !conn.TrySend(models.NewMessageEvent(msg)) {
		r.log.Warn("relay push dropped", "message_id", msg.ID, "receiver_id", msg.ReceiverID, "conn_id", conn.ID())
		return false
	}
	return true
}
