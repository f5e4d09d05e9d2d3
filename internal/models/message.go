package models

import (
	"strings"
	"time"

	"directchat/backend/internal/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a persisted direct message. Text and Media may both be set;
// at least one of them must be non-empty. Messages are immutable once created
// and ordered by CreatedAt ascending.
type Message struct {
	ID string `gorm:"primaryKey;type:text" json:"id" bson:"_id"`
	// SenderID and ReceiverID are user IDs.
	SenderID   string `gorm:"type:text;not null;index:idx_conversation,priority:1" json:"sender_id" bson:"sender_id"`
	ReceiverID string `gorm:"type:text;not null;index:idx_conversation,priority:2" json:"receiver_id" bson:"receiver_id"`
	Text       string `gorm:"type:text" json:"text" bson:"text"`
	// Media is the URL returned by the media store, empty when there is no attachment.
	Media     string    `gorm:"type:text" json:"media" bson:"media"`
	CreatedAt time.Time `gorm:"index" json:"created_at" bson:"created_at"`
}

// Validate rejects a message without text and without media.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.Text) == "" && m.Media == "" {
		return apperr.ErrEmptyMessage
	}
	return nil
}

// Involves reports whether userID is the sender or the receiver.
func (m *Message) Involves(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// EnsureIdentity fills ID and CreatedAt when they are still zero.
func (m *Message) EnsureIdentity(now time.Time) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
}

// BeforeCreate is the GORM hook that assigns the server id.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	m.EnsureIdentity(time.Now())
	return
}
