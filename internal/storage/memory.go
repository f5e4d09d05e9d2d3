package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"directchat/backend/internal/apperr"
	"directchat/backend/internal/models"
)

// MemoryStore keeps everything in process memory. It backs STORE_DRIVER=memory
// for local runs and the end-to-end tests; data is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]models.User
	messages []models.Message
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]models.User),
		now:   time.Now,
	}
}

// WithClock replaces the timestamp source; tests use it to force orderings.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == user.Email {
			return apperr.ErrEmailTaken
		}
	}
	user.EnsureIdentity(m.now())
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &user, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *MemoryStore) ListUsersExcept(_ context.Context, id string) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := []models.User{}
	for _, user := range m.users {
		if user.ID != id {
			users = append(users, user)
		}
	}
	sortUsers(users)
	return users, nil
}

func (m *MemoryStore) GetUsersByIDs(_ context.Context, ids []string) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := []models.User{}
	for _, id := range ids {
		if user, ok := m.users[id]; ok {
			users = append(users, user)
		}
	}
	sortUsers(users)
	return users, nil
}

func sortUsers(users []models.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].FullName != users[j].FullName {
			return users[i].FullName < users[j].FullName
		}
		return users[i].ID < users[j].ID
	})
}

func (m *MemoryStore) SaveMessage(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg.EnsureIdentity(m.now())
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *MemoryStore) GetConversation(_ context.Context, a, b string) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	messages := []models.Message{}
	for _, msg := range m.messages {
		if (msg.SenderID == a && msg.ReceiverID == b) || (msg.SenderID == b && msg.ReceiverID == a) {
			messages = append(messages, msg)
		}
	}
	// Stable keeps insertion order for equal timestamps.
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (m *MemoryStore) Close(context.Context) error { return nil }
