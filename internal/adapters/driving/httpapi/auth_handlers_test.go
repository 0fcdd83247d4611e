package httpapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driving"
)

func engineerSignIn() *driving.SignIn {
	return &driving.SignIn{
		Token:   "fresh-token",
		Session: domain.Session{ExpiresAt: time.Now().Add(time.Hour)},
		User:    domain.User{ID: "u1", Email: "eng@zmg.test", Role: domain.RoleEngineer, Active: true},
	}
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "zmg_session" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestHandleLogin(t *testing.T) {
	t.Run("sets session cookie", func(t *testing.T) {
		f := newFixture(t)
		f.auth.signIn = engineerSignIn()

		rec := f.do(http.MethodPost, "/api/auth/login", "",
			credentialsRequest{Email: "eng@zmg.test", Password: "s3cretpass"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		cookie := sessionCookie(t, rec.Result())
		assert.Equal(t, "fresh-token", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

		var me meResponse
		decodeBody(t, rec, &me)
		assert.Equal(t, "eng@zmg.test", me.User.Email)
		assert.Contains(t, me.Permissions, "huawei:edit")
		assert.NotContains(t, rec.Body.String(), "fresh-token")
		assert.Equal(t, "192.0.2.1", f.auth.lastClient.IP)
	})

	t.Run("bad credentials", func(t *testing.T) {
		f := newFixture(t)
		f.auth.err = domain.ErrInvalidCredentials

		rec := f.do(http.MethodPost, "/api/auth/login", "",
			credentialsRequest{Email: "eng@zmg.test", Password: "wrong"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("rate limited", func(t *testing.T) {
		f := newFixture(t)
		f.auth.err = domain.ErrRateLimited

		rec := f.do(http.MethodPost, "/api/auth/login", "",
			credentialsRequest{Email: "eng@zmg.test", Password: "wrong"})
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	})
}

func TestHandleCodeFlow(t *testing.T) {
	f := newFixture(t)
	f.auth.signIn = engineerSignIn()

	rec := f.do(http.MethodPost, "/api/auth/code", "", codeRequest{Email: "eng@zmg.test"})
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"eng@zmg.test"}, f.auth.codeEmails)

	rec = f.do(http.MethodPost, "/api/auth/code/verify", "", codeRequest{Email: "eng@zmg.test", Code: "123456"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fresh-token", sessionCookie(t, rec.Result()).Value)

	f.auth.err = domain.ErrCodeExpired
	rec = f.do(http.MethodPost, "/api/auth/code/verify", "", codeRequest{Email: "eng@zmg.test", Code: "123456"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleLogout(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/auth/logout", viewerToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{viewerToken}, f.auth.loggedOut)
	assert.Equal(t, -1, sessionCookie(t, rec.Result()).MaxAge)

	rec = f.do(http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleSetupPassword(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/auth/setup-password", "",
		setupPasswordRequest{Token: "jwt", Password: "n3wpassword"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"jwt"}, f.auth.setupTokens)

	f.auth.err = domain.ErrTokenUsed
	rec = f.do(http.MethodPost, "/api/auth/setup-password", "",
		setupPasswordRequest{Token: "jwt", Password: "n3wpassword"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	f.auth.err = domain.ErrWeakPassword
	rec = f.do(http.MethodPost, "/api/auth/setup-password", "",
		setupPasswordRequest{Token: "jwt", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChangePassword(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/auth/password", "",
		changePasswordRequest{OldPassword: "a", NewPassword: "b"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/api/auth/password", viewerToken,
		changePasswordRequest{OldPassword: "old1pass", NewPassword: "new1pass"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, f.auth.changed)
}
