package auth

import (
	"context"
	"strings"
	"sync"

	"causebook.org/internal/pledge"
)

// MemoryStore is an in-memory UserStore for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	byName map[string]User
}

var _ UserStore = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byName: make(map[string]User)}
}

func (s *MemoryStore) CreateUser(ctx context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[u.Username]; ok {
		return User{}, pledge.ErrConflict
	}
	for _, existing := range s.byName {
		if strings.EqualFold(existing.Email, u.Email) {
			return User{}, pledge.ErrConflict
		}
	}
	s.byName[u.Username] = u
	return u, nil
}

func (s *MemoryStore) FindUserByUsername(ctx context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byName[username]
	if !ok {
		return User{}, pledge.ErrNotFound
	}
	return u, nil
}
