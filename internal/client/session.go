package client

import (
	"context"
	"log/slog"
	"sync"

	"directchat/backend/internal/models"
)

// Realtime is what the Session needs from a channel.
type Realtime interface {
	Subscribe(evt models.EventType, h Handler) func()
	Start()
	Done() <-chan struct{}
	Close() error
}

// DialFunc opens a realtime channel authenticated by token.
type DialFunc func(ctx context.Context, token string) (Realtime, error)

// ChannelDialer dials wsURL with DialChannel.
func ChannelDialer(wsURL string, log *slog.Logger) DialFunc {
	return func(ctx context.Context, token string) (Realtime, error) {
		return DialChannel(ctx, wsURL, token, log)
	}
}

// Session ties the realtime channel to the authentication state: a token
// opens a channel, no token closes it, and at most one channel is open.
// Subscriptions made on the Session survive channel replacement.
type Session struct {
	mu      sync.Mutex
	dial    DialFunc
	token   string
	channel Realtime
	unsubs  []func()
	online  []string

	subs *subscriptions
	log  *slog.Logger
}

func NewSession(dial DialFunc, log *slog.Logger) *Session {
	return &Session{
		dial: dial,
		subs: newSubscriptions(),
		log:  log.With("component", "session"),
	}
}

// SetToken applies an authentication change. A new non-empty token replaces
// any open channel; setting the current token again only redials when the
// previous channel has dropped.
func (s *Session) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == s.token && (token == "" || s.channel != nil) {
		return nil
	}
	s.closeLocked()
	s.token = token
	if token == "" {
		return nil
	}

	ch, err := s.dial(ctx, token)
	if err != nil {
		return err
	}
	s.channel = ch
	s.unsubs = []func(){
		ch.Subscribe(models.EventPresenceUpdate, s.onPresence),
		ch.Subscribe(models.EventNewMessage, s.subs.dispatch),
	}
	ch.Start()
	go s.watch(ch)
	return nil
}

// Subscribe registers h for events of type evt on the current and future channels.
func (s *Session) Subscribe(evt models.EventType, h Handler) func() {
	return s.subs.add(evt, h)
}

// Online is the last online set pushed by the server.
func (s *Session) Online() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.online...)
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel != nil
}

// Close drops the token and the channel.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
	s.token = ""
}

func (s *Session) onPresence(evt models.Event) {
	online, err := evt.DecodePresence()
	if err != nil {
		s.log.Warn("bad presence update", "error", err)
		return
	}
	s.mu.Lock()
	s.online = online
	s.mu.Unlock()
	s.subs.dispatch(evt)
}

// watch forgets a channel the server or the network closed.
func (s *Session) watch(ch Realtime) {
	<-ch.Done()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channel == ch {
		s.log.Info("realtime channel dropped")
		s.closeLocked()
	}
}

func (s *Session) closeLocked() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			s.log.Debug("close realtime channel", "error", err)
		}
		s.channel = nil
	}
	s.online = nil
}
