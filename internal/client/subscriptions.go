package client

import (
	"sync"

	"directchat/backend/internal/models"
)

// Handler receives one realtime event.
type Handler func(models.Event)

type subscription struct {
	id uint64
	fn Handler
}

// subscriptions is a per-event list of handlers. Each dispatched event reaches
// each handler registered at dispatch time exactly once.
type subscriptions struct {
	mu     sync.Mutex
	nextID uint64
	byType map[models.EventType][]subscription
}

func newSubscriptions() *subscriptions {
	return &subscriptions{byType: make(map[models.EventType][]subscription)}
}

// add registers fn and returns its unsubscribe func, safe to call twice.
func (s *subscriptions) add(evt models.EventType, fn Handler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.byType[evt] = append(s.byType[evt], subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(evt, id) })
	}
}

func (s *subscriptions) remove(evt models.EventType, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.byType[evt]
	for i, sub := range subs {
		if sub.id == id {
			s.byType[evt] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (s *subscriptions) dispatch(evt models.Event) {
	s.mu.Lock()
	subs := append([]subscription(nil), s.byType[evt.Type]...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(evt)
	}
}

func (s *subscriptions) count(evt models.EventType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byType[evt])
}
