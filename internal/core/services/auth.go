package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driving"
	"github.com/zmg-ops/zmg-management/internal/logger"
)

// Ensure AuthService implements the interface.
var _ driving.AuthService = (*AuthService)(nil)

const (
	sessionTokenBytes = 32
	codeDigits        = 6
	touchInterval     = time.Minute
	setupPath         = "/setup-password"
)

// AuthDeps groups the driven ports the auth service depends on.
type AuthDeps struct {
	Users    driven.UserStore
	Sessions driven.SessionStore
	Codes    driven.CodeStore
	Tokens   driven.TokenIssuer
	Mailer   driven.Mailer
	Limiter  driven.AttemptLimiter
}

// AuthService signs users in with passwords or emailed codes and resolves
// session tokens to principals.
type AuthService struct {
	users    driven.UserStore
	sessions driven.SessionStore
	codes    driven.CodeStore
	tokens   driven.TokenIssuer
	mailer   driven.Mailer
	limiter  driven.AttemptLimiter

	cfg     domain.AuthSettings
	baseURL string
	perms   atomic.Pointer[domain.RolePermissions]

	hashCost  int
	dummyOnce sync.Once
	dummyHash []byte
	now       func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(deps AuthDeps, settings *domain.AppSettings) *AuthService {
	s := &AuthService{
		users:    deps.Users,
		sessions: deps.Sessions,
		codes:    deps.Codes,
		tokens:   deps.Tokens,
		mailer:   deps.Mailer,
		limiter:  deps.Limiter,
		cfg:      settings.Auth,
		baseURL:  settings.Server.BaseURL,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
	s.SetPermissions(settings.Permissions)
	return s
}

// SetHashCost overrides the bcrypt cost. Call before serving requests.
func (s *AuthService) SetHashCost(cost int) {
	s.hashCost = cost
}

// Login verifies an email and password and starts a session.
func (s *AuthService) Login(
	ctx context.Context, email, password string, client domain.ClientInfo,
) (*driving.SignIn, error) {
	email = domain.NormalizeEmail(email)
	key := throttleKey("login", email, client.IP)
	if !s.limiter.Allow(key) {
		logger.Warn("auth: login throttled for %s from %s", email, client.IP)
		return nil, domain.ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		// Burn comparable time so unknown emails are not distinguishable.
		_ = bcrypt.CompareHashAndPassword(s.fakeHash(), []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	switch {
	case !user.Active:
		logger.Debug("auth: login rejected for inactive user %s", email)
		return nil, domain.ErrInvalidCredentials
	case !user.HasPassword():
		logger.Debug("auth: login rejected for %s without password", email)
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	s.limiter.Reset(key)
	return s.startSession(ctx, user, client)
}

// RequestCode emails a one-time sign-in code to an active user.
// Unknown and inactive emails return nil so callers cannot probe accounts.
func (s *AuthService) RequestCode(ctx context.Context, email string, client domain.ClientInfo) error {
	email = domain.NormalizeEmail(email)
	if !domain.ValidEmail(email) {
		return fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	if !s.limiter.Allow(throttleKey("code", email, client.IP)) {
		logger.Warn("auth: code request throttled for %s from %s", email, client.IP)
		return domain.ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug("auth: code requested for unknown email %s", email)
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if !user.Active {
		logger.Debug("auth: code requested for inactive user %s", email)
		return nil
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	now := s.now()
	if err := s.codes.Save(ctx, domain.VerificationCode{
		Email:     email,
		CodeHash:  hashCode(email, code),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.CodeTTL),
	}); err != nil {
		return fmt.Errorf("save code: %w", err)
	}

	err = s.mailer.SendVerificationCode(ctx, driven.VerificationMail{
		To:        email,
		Name:      user.Name,
		Code:      code,
		ExpiresIn: humanDuration(s.cfg.CodeTTL),
	})
	if err != nil {
		_ = s.codes.Delete(ctx, email)
		return fmt.Errorf("send code: %w", err)
	}
	return nil
}

// VerifyCode redeems a sign-in code and starts a session.
func (s *AuthService) VerifyCode(
	ctx context.Context, email, code string, client domain.ClientInfo,
) (*driving.SignIn, error) {
	email = domain.NormalizeEmail(email)
	key := throttleKey("verify", email, client.IP)
	if !s.limiter.Allow(key) {
		return nil, domain.ErrRateLimited
	}

	pending, err := s.codes.Get(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("load code: %w", err)
	}

	if pending.IsExpired(s.now()) {
		_ = s.codes.Delete(ctx, email)
		return nil, domain.ErrCodeExpired
	}
	if pending.Attempts >= domain.MaxCodeAttempts {
		_ = s.codes.Delete(ctx, email)
		return nil, domain.ErrTooManyAttempts
	}

	given := hashCode(email, code)
	if subtle.ConstantTimeCompare([]byte(given), []byte(pending.CodeHash)) != 1 {
		attempts, err := s.codes.IncrementAttempts(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("record attempt: %w", err)
		}
		if attempts >= domain.MaxCodeAttempts {
			_ = s.codes.Delete(ctx, email)
			return nil, domain.ErrTooManyAttempts
		}
		return nil, domain.ErrInvalidCode
	}

	if err := s.codes.Delete(ctx, email); err != nil {
		return nil, fmt.Errorf("delete code: %w", err)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if !user.Active {
		return nil, domain.ErrInactiveUser
	}

	s.limiter.Reset(key)
	return s.startSession(ctx, user, client)
}

// Authenticate resolves a session token to the calling principal.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	id := hashToken(token)
	session, err := s.sessions.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	now := s.now()
	if session.IsExpired(now) {
		_ = s.sessions.Delete(ctx, id)
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.users.Get(ctx, session.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		_ = s.sessions.Delete(ctx, id)
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.Active {
		_ = s.sessions.DeleteByUser(ctx, user.ID)
		return nil, domain.ErrUnauthenticated
	}

	if now.Sub(session.LastSeenAt) >= touchInterval {
		if err := s.sessions.Touch(ctx, id, now); err != nil {
			logger.Warn("auth: failed to touch session: %v", err)
		}
		session.LastSeenAt = now
	}

	// Role changes apply immediately; the session role is informational.
	session.Role = user.Role
	return &domain.Principal{
		User:        *user,
		Session:     session,
		Permissions: s.PermissionsFor(user.Role),
	}, nil
}

// Logout ends the session identified by token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, hashToken(token))
}

// IssueSetupToken creates a signed password setup link and emails it to the user.
// A mail failure is logged; the link is still returned.
func (s *AuthService) IssueSetupToken(
	ctx context.Context, email string, purpose domain.TokenPurpose,
) (*driving.SetupLink, error) {
	if !purpose.IsValid() {
		return nil, fmt.Errorf("%w: unknown token purpose %q", domain.ErrInvalidInput, purpose)
	}
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, domain.ErrInactiveUser
	}

	token, err := s.tokens.Issue(user.Email, purpose, s.cfg.SetupTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	link := &driving.SetupLink{
		Token:     token,
		URL:       s.baseURL + setupPath + "?token=" + url.QueryEscape(token),
		ExpiresAt: s.now().Add(s.cfg.SetupTokenTTL),
	}

	if err := s.mailer.SendSetupLink(ctx, driven.SetupMail{
		To:   user.Email,
		Name: user.Name,
		Link: link.URL,
	}); err != nil {
		logger.Warn("auth: failed to email setup link to %s: %v", user.Email, err)
	}
	return link, nil
}

// CompleteSetup redeems a setup token and sets the user's password.
// Every existing session of the user ends.
func (s *AuthService) CompleteSetup(ctx context.Context, token, password string) error {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return err
	}
	if !claims.Purpose.IsValid() {
		return domain.ErrInvalidToken
	}

	user, err := s.users.GetByEmail(ctx, claims.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if !user.Active {
		return domain.ErrInactiveUser
	}

	// Token times have second precision, so a password set in the issuing
	// second also invalidates the token.
	if !user.PasswordUpdatedAt.IsZero() && !user.PasswordUpdatedAt.Truncate(time.Second).Before(claims.IssuedAt) {
		return domain.ErrTokenUsed
	}
	if claims.Purpose == domain.PurposePasswordSetup && user.HasPassword() {
		return domain.ErrTokenUsed
	}

	return s.setPassword(ctx, user, password)
}

// ChangePassword replaces the caller's password after checking the old one.
// Other sessions of the user end; the calling session survives.
func (s *AuthService) ChangePassword(
	ctx context.Context, principal *domain.Principal, oldPassword, newPassword string,
) error {
	if principal == nil {
		return domain.ErrUnauthenticated
	}
	user, err := s.users.Get(ctx, principal.User.ID)
	if err != nil {
		return err
	}
	if !user.HasPassword() ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return domain.ErrInvalidCredentials
	}
	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return err
	}
	if principal.Session != nil {
		if err := s.sessions.Save(ctx, *principal.Session); err != nil {
			return fmt.Errorf("restore session: %w", err)
		}
	}
	return nil
}

// PermissionsFor returns the permissions currently granted to a role.
func (s *AuthService) PermissionsFor(role domain.Role) []domain.Permission {
	return s.perms.Load().For(role)
}

// SetPermissions replaces the role to permission mapping.
func (s *AuthService) SetPermissions(perms domain.RolePermissions) {
	if perms == nil {
		perms = domain.DefaultRolePermissions()
	}
	clone := perms.Clone()
	s.perms.Store(&clone)
}

// PurgeExpired deletes expired sessions and verification codes.
func (s *AuthService) PurgeExpired(ctx context.Context) error {
	now := s.now()
	sessions, err := s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}
	codes, err := s.codes.DeleteExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("purge codes: %w", err)
	}
	if sweeper, ok := s.limiter.(interface{ Sweep() int }); ok {
		sweeper.Sweep()
	}
	if sessions > 0 || codes > 0 {
		logger.Debug("auth: purged %d sessions and %d codes", sessions, codes)
	}
	return nil
}

func (s *AuthService) setPassword(ctx context.Context, user *domain.User, password string) error {
	if !domain.ValidPassword(password) {
		return domain.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.PasswordUpdatedAt = s.now()
	if err := s.users.Save(ctx, *user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	if err := s.sessions.DeleteByUser(ctx, user.ID); err != nil {
		return fmt.Errorf("end sessions: %w", err)
	}
	logger.Info("auth: password updated for %s", user.Email)
	return nil
}

func (s *AuthService) startSession(
	ctx context.Context, user *domain.User, client domain.ClientInfo,
) (*driving.SignIn, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	session := domain.Session{
		ID:         hashToken(token),
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		IP:         client.IP,
		UserAgent:  client.UserAgent,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.SessionTTL),
		LastSeenAt: now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	logger.Info("auth: %s signed in from %s", user.Email, client.IP)
	return &driving.SignIn{Token: token, Session: session, User: *user}, nil
}

func (s *AuthService) fakeHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.hashCost)
	})
	return s.dummyHash
}

func throttleKey(action, email, ip string) string {
	return action + ":" + email + "|" + ip
}

func newSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func hashCode(email, code string) string {
	sum := sha256.Sum256([]byte(email + ":" + code))
	return hex.EncodeToString(sum[:])
}

func humanDuration(d time.Duration) string {
	if d%time.Hour == 0 && d >= time.Hour {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	m := int(d.Round(time.Minute) / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
