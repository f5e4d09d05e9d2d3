package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"directchat/backend/internal/apperr"
	"directchat/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     models.Message
		wantErr error
	}{
		{"text only", models.Message{Text: "hi"}, nil},
		{"media only", models.Message{Media: "/media/a.png"}, nil},
		{"text and media", models.Message{Text: "look", Media: "/media/a.png"}, nil},
		{"empty", models.Message{}, apperr.ErrEmptyMessage},
		{"whitespace only", models.Message{Text: "  \n\t"}, apperr.ErrEmptyMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestMessageInvolves(t *testing.T) {
	msg := models.Message{SenderID: "a", ReceiverID: "b"}

	assert.True(t, msg.Involves("a"))
	assert.True(t, msg.Involves("b"))
	assert.False(t, msg.Involves("c"))
}

func TestMessageBeforeCreate(t *testing.T) {
	msg := &models.Message{SenderID: "a", ReceiverID: "b", Text: "hi"}

	require.NoError(t, msg.BeforeCreate(nil))

	assert.NotEmpty(t, msg.ID)
	assert.WithinDuration(t, time.Now(), msg.CreatedAt, time.Second)
}

func TestPresenceEvent(t *testing.T) {
	evt := models.NewPresenceEvent(nil)
	assert.Equal(t, models.EventPresenceUpdate, evt.Type)
	assert.JSONEq(t, `[]`, string(evt.Data), "nil online set must encode as an empty list")

	evt = models.NewPresenceEvent([]string{"a", "b"})
	online, err := evt.DecodePresence()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, online)
}

func TestMessageEvent_WireShape(t *testing.T) {
	msg := models.Message{ID: "m1", SenderID: "a", ReceiverID: "b", Text: "hi"}

	raw, err := json.Marshal(models.NewMessageEvent(msg))
	require.NoError(t, err)

	var decoded models.Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, models.EventNewMessage, decoded.Type)

	got, err := decoded.DecodeMessage()
	require.NoError(t, err)
	assert.Equal(t, "m1", got.ID)
	assert.Equal(t, "hi", got.Text)
	assert.Contains(t, string(raw), `"event":"new-message"`)
}
