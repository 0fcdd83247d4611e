package driving

import (
	"context"
	"time"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

// SignIn is the result of a successful sign-in.
// Token is the opaque session token to hand to the browser.
type SignIn struct {
	Token   string
	Session domain.Session
	User    domain.User
}

// SetupLink is a password setup token together with its link.
type SetupLink struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthService signs users in and out and resolves sessions to principals.
type AuthService interface {
	// Login verifies an email and password and starts a session.
	Login(ctx context.Context, email, password string, client domain.ClientInfo) (*SignIn, error)

	// RequestCode emails a one-time sign-in code. Unknown emails succeed silently.
	RequestCode(ctx context.Context, email string, client domain.ClientInfo) error

	// VerifyCode redeems a sign-in code and starts a session.
	VerifyCode(ctx context.Context, email, code string, client domain.ClientInfo) (*SignIn, error)

	// Authenticate resolves a session token to the calling principal.
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)

	// Logout ends the session identified by token.
	Logout(ctx context.Context, token string) error

	// IssueSetupToken creates a signed password setup link for a user.
	IssueSetupToken(ctx context.Context, email string, purpose domain.TokenPurpose) (*SetupLink, error)

	// CompleteSetup redeems a setup token and sets the user's password.
	CompleteSetup(ctx context.Context, token, password string) error

	// ChangePassword replaces the caller's password after checking the old one.
	ChangePassword(ctx context.Context, principal *domain.Principal, oldPassword, newPassword string) error

	// PermissionsFor returns the permissions currently granted to a role.
	PermissionsFor(role domain.Role) []domain.Permission

	// SetPermissions replaces the role to permission mapping.
	SetPermissions(perms domain.RolePermissions)

	// PurgeExpired deletes expired sessions and verification codes.
	PurgeExpired(ctx context.Context) error
}
