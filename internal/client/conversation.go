package client

import (
	"context"
	"log/slog"

	"directchat/backend/internal/models"
)

// MessageAPI is the part of APIClient a Conversation needs.
type MessageAPI interface {
	History(ctx context.Context, peerID string) ([]models.Message, error)
	Send(ctx context.Context, pm PendingMessage) (*models.Message, error)
}

// Subscriber is the part of Session a Conversation needs.
type Subscriber interface {
	Subscribe(evt models.EventType, h Handler) func()
}

// Conversation drives a Reconciler from user actions, HTTP responses and
// relayed messages.
type Conversation struct {
	API        MessageAPI
	Reconciler *Reconciler

	unsubscribe func()
	log         *slog.Logger
}

func NewConversation(api MessageAPI, realtime Subscriber, rec *Reconciler, log *slog.Logger) *Conversation {
	c := &Conversation{
		API:        api,
		Reconciler: rec,
		log:        log.With("component", "conversation"),
	}
	c.unsubscribe = realtime.Subscribe(models.EventNewMessage, c.onMessage)
	return c
}

// Open selects peerID and loads its history.
func (c *Conversation) Open(ctx context.Context, peerID string) error {
	c.Reconciler.Select(peerID)
	history, err := c.API.History(ctx, peerID)
	if err != nil {
		return err
	}
	c.Reconciler.LoadHistory(peerID, history)
	return nil
}

// Send renders d optimistically, then submits it. On failure the entry stays
// visible as failed and the error is returned.
func (c *Conversation) Send(ctx context.Context, d Draft) (PendingMessage, error) {
	pm, err := c.Reconciler.Submit(d)
	if err != nil {
		return PendingMessage{}, err
	}
	return pm, c.submit(ctx, pm)
}

// Retry resubmits a failed entry.
func (c *Conversation) Retry(ctx context.Context, tempID string) error {
	pm, ok := c.Reconciler.Retry(tempID)
	if !ok {
		return nil
	}
	return c.submit(ctx, pm)
}

func (c *Conversation) Close() {
	c.unsubscribe()
}

func (c *Conversation) submit(ctx context.Context, pm PendingMessage) error {
	msg, err := c.API.Send(ctx, pm)
	if err != nil {
		c.log.Warn("send failed", "temp_id", pm.TempID, "error", err)
		c.Reconciler.Fail(pm.TempID, err)
		return err
	}
	c.Reconciler.Confirm(pm.TempID, *msg)
	return nil
}

func (c *Conversation) onMessage(evt models.Event) {
	msg, err := evt.DecodeMessage()
	if err != nil {
		c.log.Warn("bad new-message event", "error", err)
		return
	}
	c.Reconciler.Merge(msg)
}
