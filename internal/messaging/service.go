// Package messaging orchestrates sending and reading direct messages:
// validate, upload media, persist, then hand the stored message to the relay.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"directchat/backend/internal/apperr"
	"directchat/backend/internal/media"
	"directchat/backend/internal/models"
	"directchat/backend/internal/storage"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Deliverer pushes a persisted message to its receiver, best effort.
type Deliverer interface {
	Deliver(msg models.Message) bool
}

// OnlineLister reports the user ids with a live connection.
type OnlineLister interface {
	Online() []string
}

// Attachment is an uploaded file waiting to be stored.
type Attachment struct {
	Filename string
	Content  io.Reader
}

type Service struct {
	Storage  storage.Storage
	Media    media.Store
	Relay    Deliverer
	Presence OnlineLister
	log      *slog.Logger
}

func NewService(store storage.Storage, mediaStore media.Store, relay Deliverer, presence OnlineLister, log *slog.Logger) *Service {
	return &Service{
		Storage:  store,
		Media:    mediaStore,
		Relay:    relay,
		Presence: presence,
		log:      log.With("component", "messaging"),
	}
}

// Send stores a message from senderID to receiverID and relays it.
// The returned message is the persisted one, carrying the server id.
// A relay miss never fails the call.
func (s *Service) Send(ctx context.Context, senderID, receiverID, text string, att *Attachment) (*models.Message, error) {
	if err := s.checkRecipient(ctx, senderID, receiverID); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" && att == nil {
		return nil, apperr.ErrEmptyMessage
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
	}

	if att != nil {
		url, err := s.Media.Save(ctx, att.Filename, att.Content)
		if err != nil {
			if errors.Is(err, apperr.ErrUnsupportedMedia) || errors.Is(err, apperr.ErrMediaUpload) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", apperr.ErrMediaUpload, err)
		}
		msg.Media = url
	}

	if err := msg.Validate(); err != nil {
		return nil, err
	}

	if err := s.Storage.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	if !s.Relay.Deliver(*msg) {
		s.log.Debug("message stored without live delivery", "message_id", msg.ID, "receiver_id", receiverID)
	}
	return msg, nil
}

// History returns the conversation between me and other, oldest first.
func (s *Service) History(ctx context.Context, me, other string) ([]models.Message, error) {
	if err := s.checkRecipient(ctx, me, other); err != nil {
		return nil, err
	}
	messages, err := s.Storage.GetConversation(ctx, me, other)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return messages, nil
}

// Contacts lists every user except me.
func (s *Service) Contacts(ctx context.Context, me string) ([]models.User, error) {
	users, err := s.Storage.ListUsersExcept(ctx, me)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// OnlineContacts returns the profiles of online users other than me.
func (s *Service) OnlineContacts(ctx context.Context, me string) ([]models.User, error) {
	ids := lo.Filter(s.Presence.Online(), func(id string, _ int) bool { return id != me })
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	users, err := s.Storage.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load online users: %w", err)
	}
	return users, nil
}

// checkRecipient wraps ErrNotFound alongside ErrInvalidRecipient for an
// unknown but well-formed id so callers can tell the two apart.
func (s *Service) checkRecipient(ctx context.Context, me, other string) error {
	if _, err := uuid.Parse(other); err != nil {
		return fmt.Errorf("%w: malformed user id %q", apperr.ErrInvalidRecipient, other)
	}
	if other == me {
		return fmt.Errorf("%w: cannot message yourself", apperr.ErrInvalidRecipient)
	}
	if _, err := s.Storage.GetUserByID(ctx, other); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("%w: %w", apperr.ErrInvalidRecipient, apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to look up recipient: %w", err)
	}
	return nil
}
