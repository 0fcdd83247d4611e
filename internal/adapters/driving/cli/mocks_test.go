package cli

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/zmg-ops/zmg-management/internal/adapters/driving/mcp"
	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driving"
)

// mockUserService is a mock implementation of driving.UserService.
type mockUserService struct {
	users     map[string]*domain.User
	passwords map[string]string
	err       error
}

func (m *mockUserService) List(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, m.err
}

func (m *mockUserService) Get(_ context.Context, id string) (*domain.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserService) Create(_ context.Context, email, name string, role domain.Role) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if !role.IsValid() {
		return nil, domain.ErrInvalidInput
	}
	u := &domain.User{ID: "id-" + email, Email: domain.NormalizeEmail(email), Name: name, Role: role, Active: true}
	m.users[u.Email] = u
	return u, nil
}

func (m *mockUserService) UpdateRole(_ context.Context, _ string, _ domain.Role) (*domain.User, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockUserService) SetActive(_ context.Context, _ string, _ bool) (*domain.User, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockUserService) SetPassword(_ context.Context, email, password string) error {
	if m.err != nil {
		return m.err
	}
	m.passwords[domain.NormalizeEmail(email)] = password
	return nil
}

// mockAuthService is a mock implementation of driving.AuthService.
type mockAuthService struct {
	mu       sync.Mutex
	purposes []domain.TokenPurpose
	perms    domain.RolePermissions
	purged   int
}

func (m *mockAuthService) Login(context.Context, string, string, domain.ClientInfo) (*driving.SignIn, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockAuthService) RequestCode(context.Context, string, domain.ClientInfo) error {
	return domain.ErrNotImplemented
}

func (m *mockAuthService) VerifyCode(context.Context, string, string, domain.ClientInfo) (*driving.SignIn, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockAuthService) Authenticate(context.Context, string) (*domain.Principal, error) {
	return nil, domain.ErrUnauthenticated
}

func (m *mockAuthService) Logout(context.Context, string) error {
	return nil
}

func (m *mockAuthService) IssueSetupToken(
	_ context.Context, email string, purpose domain.TokenPurpose,
) (*driving.SetupLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purposes = append(m.purposes, purpose)
	return &driving.SetupLink{
		Token:     "tok",
		URL:       "http://localhost:8080/setup-password?token=tok&for=" + email,
		ExpiresAt: time.Now().Add(48 * time.Hour),
	}, nil
}

func (m *mockAuthService) CompleteSetup(context.Context, string, string) error {
	return domain.ErrNotImplemented
}

func (m *mockAuthService) ChangePassword(context.Context, *domain.Principal, string, string) error {
	return domain.ErrNotImplemented
}

func (m *mockAuthService) PermissionsFor(role domain.Role) []domain.Permission {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.perms == nil {
		return domain.DefaultRolePermissions().For(role)
	}
	return m.perms.For(role)
}

func (m *mockAuthService) SetPermissions(perms domain.RolePermissions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.perms = perms
}

func (m *mockAuthService) PurgeExpired(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purged++
	return nil
}

func (m *mockAuthService) purgeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.purged
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings *domain.AppSettings
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	return m.settings, nil
}

func (m *mockSettingsService) Validate() error {
	return nil
}

type testApp struct {
	app   *App
	users *mockUserService
	auth  *mockAuthService
}

// setupTestApp replaces loadApp with mocks and resets command flags.
func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	ta := &testApp{
		users: &mockUserService{users: map[string]*domain.User{}, passwords: map[string]string{}},
		auth:  &mockAuthService{},
	}
	ta.app = &App{
		Settings: domain.DefaultAppSettings(),
		Auth:     ta.auth,
		Users:    ta.users,
	}

	original := loadApp
	loadApp = func(context.Context) (*App, error) { return ta.app, nil }
	t.Cleanup(func() {
		loadApp = original
		userName, userRole, userSetupLink, userReset = "", string(domain.RoleViewer), false, false
		flags := mcpServeCmd.Flags()
		_ = flags.Set("port", "0")
		_ = flags.Set("host", mcp.DefaultHost)
		_ = flags.Set("token", "")
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return ta
}
