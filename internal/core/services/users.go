package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driving"
	"github.com/zmg-ops/zmg-management/internal/logger"
)

// Ensure UserService implements the interface.
var _ driving.UserService = (*UserService)(nil)

// UserService administers user accounts.
type UserService struct {
	users    driven.UserStore
	sessions driven.SessionStore
	hashCost int
	now      func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(users driven.UserStore, sessions driven.SessionStore) *UserService {
	return &UserService{
		users:    users,
		sessions: sessions,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// SetHashCost overrides the bcrypt cost.
func (s *UserService) SetHashCost(cost int) {
	s.hashCost = cost
}

// List returns all users sorted by email.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

// Get retrieves a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: user id required", domain.ErrInvalidInput)
	}
	return s.users.Get(ctx, id)
}

// Create adds an active user without a password.
func (s *UserService) Create(ctx context.Context, email, name string, role domain.Role) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if !domain.ValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid email %q", domain.ErrInvalidInput, email)
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}

	user := domain.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		Role:      role,
		Active:    true,
		CreatedAt: s.now(),
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	logger.Info("users: created %s with role %s", email, role)
	return &user, nil
}

// UpdateRole changes a user's role.
func (s *UserService) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	user.Role = role
	if err := s.users.Save(ctx, *user); err != nil {
		return nil, err
	}
	logger.Info("users: %s is now %s", user.Email, role)
	return user, nil
}

// SetActive activates or deactivates a user. Deactivation ends all sessions.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Active != active {
		user.Active = active
		if err := s.users.Save(ctx, *user); err != nil {
			return nil, err
		}
	}
	if !active {
		if err := s.sessions.DeleteByUser(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("end sessions: %w", err)
		}
		logger.Info("users: deactivated %s", user.Email)
	}
	return user, nil
}

// SetPassword sets a password directly, bypassing setup tokens.
// Used by the CLI to bootstrap the first administrator.
func (s *UserService) SetPassword(ctx context.Context, email, password string) error {
	if !domain.ValidPassword(password) {
		return domain.ErrWeakPassword
	}
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.PasswordUpdatedAt = s.now()
	if err := s.users.Save(ctx, *user); err != nil {
		return err
	}
	return s.sessions.DeleteByUser(ctx, user.ID)
}
