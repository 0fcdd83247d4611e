package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestIssuer(t *testing.T, now time.Time) *JWTIssuer {
	t.Helper()
	iss, err := NewJWTIssuer(testSecret)
	require.NoError(t, err)
	iss.now = func() time.Time { return now }
	return iss
}

func TestNewJWTIssuer_ShortSecret(t *testing.T) {
	_, err := NewJWTIssuer("short")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 15, 500, time.UTC)
	iss := newTestIssuer(t, now)

	tok, err := iss.Issue(" Ana@ZMG.test ", domain.PurposePasswordSetup, 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(tok, "."))

	claims, err := iss.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "ana@zmg.test", claims.Email)
	assert.Equal(t, domain.PurposePasswordSetup, claims.Purpose)
	assert.NotEmpty(t, claims.TokenID)
	assert.Equal(t, now.Truncate(time.Second), claims.IssuedAt)
	assert.Equal(t, now.Truncate(time.Second).Add(48*time.Hour), claims.ExpiresAt)
}

func TestIssue_UniqueTokenIDs(t *testing.T) {
	iss := newTestIssuer(t, time.Now())
	a, err := iss.Issue("a@zmg.test", domain.PurposePasswordReset, time.Hour)
	require.NoError(t, err)
	b, err := iss.Issue("a@zmg.test", domain.PurposePasswordReset, time.Hour)
	require.NoError(t, err)

	ca, err := iss.Verify(a)
	require.NoError(t, err)
	cb, err := iss.Verify(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.TokenID, cb.TokenID)
}

func TestIssue_InvalidPurpose(t *testing.T) {
	iss := newTestIssuer(t, time.Now())
	_, err := iss.Issue("a@zmg.test", domain.TokenPurpose("login"), time.Hour)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVerify_Expired(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, now)
	tok, err := iss.Issue("a@zmg.test", domain.PurposePasswordSetup, time.Hour)
	require.NoError(t, err)

	iss.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = iss.Verify(tok)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	iss := newTestIssuer(t, time.Now())
	tok, err := iss.Issue("a@zmg.test", domain.PurposePasswordSetup, time.Hour)
	require.NoError(t, err)

	other, err := NewJWTIssuer(strings.Repeat("x", 40))
	require.NoError(t, err)
	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	iss := newTestIssuer(t, time.Now())
	claims := jwt.RegisteredClaims{
		ID:        "id",
		Issuer:    Issuer,
		Subject:   "a@zmg.test",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = iss.Verify(tok)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	iss := newTestIssuer(t, time.Now())
	for _, tok := range []string{"", "abc", "a.b.c"} {
		_, err := iss.Verify(tok)
		assert.ErrorIs(t, err, domain.ErrInvalidToken, tok)
	}
}
