package domain

import (
	"sort"
	"time"
)

// Session is a signed-in browser session.
// The cookie carries an opaque token; only its hash is stored as ID.
type Session struct {
	ID         string    `json:"-"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	IP         string    `json:"ip,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// IsExpired returns true if the session is no longer valid at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// MaxCodeAttempts is the number of wrong guesses allowed per verification code.
const MaxCodeAttempts = 5

// VerificationCode is a one-time sign-in code sent by email.
type VerificationCode struct {
	Email     string
	CodeHash  string
	Attempts  int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired returns true if the code can no longer be redeemed at now.
func (c *VerificationCode) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// TokenPurpose identifies what a signed setup token may be used for.
type TokenPurpose string

// Token purposes.
const (
	PurposePasswordSetup TokenPurpose = "password_setup"
	PurposePasswordReset TokenPurpose = "password_reset"
)

// IsValid returns true if the purpose is recognised.
func (p TokenPurpose) IsValid() bool {
	return p == PurposePasswordSetup || p == PurposePasswordReset
}

// SetupClaims are the verified contents of a password setup token.
type SetupClaims struct {
	TokenID   string
	Email     string
	Purpose   TokenPurpose
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ClientInfo describes where a request came from.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// Principal is an authenticated caller together with its effective permissions.
type Principal struct {
	User        User
	Session     *Session
	Permissions []Permission
}

// Can reports whether the principal holds the permission.
func (p *Principal) Can(perm Permission) bool {
	if p == nil {
		return false
	}
	for _, granted := range p.Permissions {
		if granted == perm {
			return true
		}
	}
	return false
}

// PermissionStrings returns the permissions as sorted strings.
func (p *Principal) PermissionStrings() []string {
	out := make([]string, 0, len(p.Permissions))
	for _, perm := range p.Permissions {
		out = append(out, string(perm))
	}
	sort.Strings(out)
	return out
}
