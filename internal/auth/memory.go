package auth

import (
	"context"
	"sync"
)

type account struct {
	user User
	hash []byte
}

// MemoryUserStore keeps accounts in process memory.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[string]account
	byEmail map[string]string
}

var _ UserStore = (*MemoryUserStore)(nil)

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[string]account),
		byEmail: make(map[string]string),
	}
}

func (m *MemoryUserStore) CreateUser(_ context.Context, u User, hash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return ErrEmailTaken
	}
	m.byID[u.ID] = account{user: u, hash: append([]byte(nil), hash...)}
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *MemoryUserStore) UserByEmail(_ context.Context, email string) (User, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[email]
	if !ok {
		return User{}, nil, ErrUserNotFound
	}
	a := m.byID[id]
	return a.user, a.hash, nil
}

func (m *MemoryUserStore) UserByID(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return a.user, nil
}
