package driven

import (
	"context"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

// UserStore persists user accounts.
type UserStore interface {
	// Save stores a user. Creates if new, updates if the ID exists.
	Save(ctx context.Context, user domain.User) error

	// Get retrieves a user by ID.
	// Returns domain.ErrNotFound if the user does not exist.
	Get(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by normalised email.
	// Returns domain.ErrNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns all users.
	List(ctx context.Context) ([]domain.User, error)
}
