package driven

import (
	"time"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

// TokenIssuer signs and verifies password setup tokens.
type TokenIssuer interface {
	// Issue returns a signed token for the email and purpose, valid for ttl.
	Issue(email string, purpose domain.TokenPurpose, ttl time.Duration) (string, error)

	// Verify checks the signature and expiry and returns the claims.
	// Returns domain.ErrInvalidToken for any malformed, forged or expired token.
	Verify(token string) (*domain.SetupClaims, error)
}
