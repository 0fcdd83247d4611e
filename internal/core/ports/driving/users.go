package driving

import (
	"context"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

// UserService administers user accounts.
type UserService interface {
	// List returns all users sorted by email.
	List(ctx context.Context) ([]domain.User, error)

	// Get retrieves a user by ID.
	Get(ctx context.Context, id string) (*domain.User, error)

	// Create adds an active user without a password.
	Create(ctx context.Context, email, name string, role domain.Role) (*domain.User, error)

	// UpdateRole changes a user's role.
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)

	// SetActive activates or deactivates a user. Deactivation ends all sessions.
	SetActive(ctx context.Context, id string, active bool) (*domain.User, error)

	// SetPassword sets a password directly, bypassing setup tokens.
	SetPassword(ctx context.Context, email, password string) error
}
