// Package token signs and verifies password setup tokens as HS256 JWTs.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
)

// Issuer is the iss claim of every token.
const Issuer = "zmg-management"

// Ensure JWTIssuer implements the interface.
var _ driven.TokenIssuer = (*JWTIssuer)(nil)

type setupClaims struct {
	Purpose domain.TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// JWTIssuer implements driven.TokenIssuer with a shared HMAC secret.
type JWTIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewJWTIssuer creates an issuer. The secret must be at least
// domain.MinJWTSecretLength bytes.
func NewJWTIssuer(secret string) (*JWTIssuer, error) {
	if len(secret) < domain.MinJWTSecretLength {
		return nil, fmt.Errorf("%w: jwt secret must be at least %d bytes", domain.ErrInvalidInput, domain.MinJWTSecretLength)
	}
	return &JWTIssuer{secret: []byte(secret), now: time.Now}, nil
}

// Issue returns a signed token for the email and purpose, valid for ttl.
// Times are truncated to seconds as JWT NumericDate carries no fraction.
func (i *JWTIssuer) Issue(email string, purpose domain.TokenPurpose, ttl time.Duration) (string, error) {
	if !purpose.IsValid() {
		return "", fmt.Errorf("%w: unknown token purpose %q", domain.ErrInvalidInput, purpose)
	}
	now := i.now().UTC().Truncate(time.Second)
	claims := setupClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			Subject:   domain.NormalizeEmail(email),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, algorithm, issuer and expiry.
func (i *JWTIssuer) Verify(tokenString string) (*domain.SetupClaims, error) {
	var claims setupClaims
	// Time claims are checked below against the issuer clock.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	if claims.Issuer != Issuer || claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing claims", domain.ErrInvalidToken)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing timestamps", domain.ErrInvalidToken)
	}

	now := i.now()
	if !now.Before(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("%w: token expired", domain.ErrInvalidToken)
	}
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Time) {
		return nil, fmt.Errorf("%w: token not valid yet", domain.ErrInvalidToken)
	}

	return &domain.SetupClaims{
		TokenID:   claims.ID,
		Email:     claims.Subject,
		Purpose:   claims.Purpose,
		IssuedAt:  claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}
