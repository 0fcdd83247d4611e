package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
)

// Ensure UserStore implements the interface.
var _ driven.UserStore = (*UserStore)(nil)

// UserStore is an in-memory implementation of driven.UserStore.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUserStore creates a new in-memory user store, optionally seeded.
func NewUserStore(users ...domain.User) *UserStore {
	s := &UserStore{users: make(map[string]domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

// Save stores or updates a user.
func (s *UserStore) Save(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.users {
		if id != user.ID && existing.Email == user.Email {
			return domain.ErrAlreadyExists
		}
	}
	s.users[user.ID] = user
	return nil
}

// Get retrieves a user by ID.
func (s *UserStore) Get(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &user, nil
}

// GetByEmail retrieves a user by normalised email.
func (s *UserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = domain.NormalizeEmail(email)
	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns all users ordered by email.
func (s *UserStore) List(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}
