package driven

import (
	"context"
	"time"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

// SessionStore persists browser sessions keyed by token hash.
type SessionStore interface {
	// Save stores or replaces a session.
	Save(ctx context.Context, session domain.Session) error

	// Get retrieves a session by ID.
	// Returns domain.ErrNotFound if the session does not exist.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Touch updates the last-seen time of a session.
	Touch(ctx context.Context, id string, at time.Time) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByUser removes every session of a user.
	DeleteByUser(ctx context.Context, userID string) error

	// DeleteExpired removes sessions that expired before now and returns how many.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// CodeStore persists pending email verification codes, one per email.
type CodeStore interface {
	// Save stores a code, replacing any pending code for the same email.
	Save(ctx context.Context, code domain.VerificationCode) error

	// Get retrieves the pending code for an email.
	// Returns domain.ErrNotFound if there is none.
	Get(ctx context.Context, email string) (*domain.VerificationCode, error)

	// IncrementAttempts records a failed guess and returns the new attempt count.
	IncrementAttempts(ctx context.Context, email string) (int, error)

	// Delete removes the pending code for an email.
	Delete(ctx context.Context, email string) error

	// DeleteExpired removes codes that expired before now and returns how many.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
