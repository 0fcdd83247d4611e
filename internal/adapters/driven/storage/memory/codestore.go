package memory

import (
	"context"
	"sync"
	"time"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
)

// Ensure CodeStore implements the interface.
var _ driven.CodeStore = (*CodeStore)(nil)

// CodeStore is an in-memory implementation of driven.CodeStore.
type CodeStore struct {
	mu    sync.Mutex
	codes map[string]domain.VerificationCode
}

// NewCodeStore creates a new in-memory verification code store.
func NewCodeStore() *CodeStore {
	return &CodeStore{
		codes: make(map[string]domain.VerificationCode),
	}
}

// Save stores a code, replacing any pending code for the same email.
func (s *CodeStore) Save(_ context.Context, code domain.VerificationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code.Email] = code
	return nil
}

// Get retrieves the pending code for an email.
func (s *CodeStore) Get(_ context.Context, email string) (*domain.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &code, nil
}

// IncrementAttempts records a failed guess and returns the new attempt count.
func (s *CodeStore) IncrementAttempts(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[email]
	if !ok {
		return 0, domain.ErrNotFound
	}
	code.Attempts++
	s.codes[email] = code
	return code.Attempts, nil
}

// Delete removes the pending code for an email.
func (s *CodeStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, email)
	return nil
}

// DeleteExpired removes codes that expired before now.
func (s *CodeStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for email, code := range s.codes {
		if code.IsExpired(now) {
			delete(s.codes, email)
			removed++
		}
	}
	return removed, nil
}
