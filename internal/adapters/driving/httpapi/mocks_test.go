package httpapi

import (
	"context"
	"time"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driving"
)

// mockAuthService is a mock implementation of driving.AuthService.
// Sessions maps cookie values to principals.
type mockAuthService struct {
	sessions    map[string]*domain.Principal
	signIn      *driving.SignIn
	err         error
	codeEmails  []string
	loggedOut   []string
	setupTokens []string
	link        *driving.SetupLink
	purposes    []domain.TokenPurpose
	lastClient  domain.ClientInfo
	changed     bool
}

func (m *mockAuthService) Login(
	_ context.Context, _, _ string, client domain.ClientInfo,
) (*driving.SignIn, error) {
	m.lastClient = client
	if m.err != nil {
		return nil, m.err
	}
	return m.signIn, nil
}

func (m *mockAuthService) RequestCode(_ context.Context, email string, _ domain.ClientInfo) error {
	m.codeEmails = append(m.codeEmails, email)
	return m.err
}

func (m *mockAuthService) VerifyCode(
	_ context.Context, _, _ string, _ domain.ClientInfo,
) (*driving.SignIn, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.signIn, nil
}

func (m *mockAuthService) Authenticate(_ context.Context, token string) (*domain.Principal, error) {
	p, ok := m.sessions[token]
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return p, nil
}

func (m *mockAuthService) Logout(_ context.Context, token string) error {
	m.loggedOut = append(m.loggedOut, token)
	return nil
}

func (m *mockAuthService) IssueSetupToken(
	_ context.Context, _ string, purpose domain.TokenPurpose,
) (*driving.SetupLink, error) {
	m.purposes = append(m.purposes, purpose)
	if m.err != nil {
		return nil, m.err
	}
	return m.link, nil
}

func (m *mockAuthService) CompleteSetup(_ context.Context, token, _ string) error {
	m.setupTokens = append(m.setupTokens, token)
	return m.err
}

func (m *mockAuthService) ChangePassword(_ context.Context, _ *domain.Principal, _, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.changed = true
	return nil
}

func (m *mockAuthService) PermissionsFor(role domain.Role) []domain.Permission {
	return domain.DefaultRolePermissions().For(role)
}

func (m *mockAuthService) SetPermissions(_ domain.RolePermissions) {}

func (m *mockAuthService) PurgeExpired(_ context.Context) error {
	return nil
}

// mockUserService is a mock implementation of driving.UserService.
type mockUserService struct {
	users    map[string]*domain.User
	err      error
	created  []string
	activity map[string]bool
}

func (m *mockUserService) List(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, m.err
}

func (m *mockUserService) Get(_ context.Context, id string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (m *mockUserService) Create(_ context.Context, email, name string, role domain.Role) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = append(m.created, email)
	u := &domain.User{ID: "new-id", Email: email, Name: name, Role: role, Active: true}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserService) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.Role = role
	return u, nil
}

func (m *mockUserService) SetActive(_ context.Context, id string, active bool) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if m.activity == nil {
		m.activity = make(map[string]bool)
	}
	m.activity[id] = active
	u.Active = active
	return u, nil
}

func (m *mockUserService) SetPassword(_ context.Context, _, _ string) error {
	return m.err
}

// mockTableService is a mock implementation of driving.TableService.
type mockTableService struct {
	page        *driving.TablePage
	row         *domain.Row
	err         error
	lastTable   domain.TableName
	lastID      string
	lastQuery   domain.RowQuery
	lastColumn  string
	lastValue   string
	lastFields  map[string]string
	cellUpdates int
	rowUpdates  int
	appends     int
}

func (m *mockTableService) Schemas(principal *domain.Principal) []domain.TableSchema {
	var out []domain.TableSchema
	for _, s := range domain.DefaultTableSchemas() {
		if principal.Can(s.ViewPermission) {
			out = append(out, s)
		}
	}
	return out
}

func (m *mockTableService) List(
	_ context.Context, _ *domain.Principal, table domain.TableName, query domain.RowQuery,
) (*driving.TablePage, error) {
	m.lastTable = table
	m.lastQuery = query
	return m.page, m.err
}

func (m *mockTableService) Get(
	_ context.Context, _ *domain.Principal, table domain.TableName, id string,
) (*domain.Row, error) {
	m.lastTable = table
	m.lastID = id
	return m.row, m.err
}

func (m *mockTableService) UpdateCell(
	_ context.Context, _ *domain.Principal, table domain.TableName, id, column, value string,
) (*domain.Row, error) {
	m.cellUpdates++
	m.lastTable, m.lastID, m.lastColumn, m.lastValue = table, id, column, value
	return m.row, m.err
}

func (m *mockTableService) UpdateRow(
	_ context.Context, _ *domain.Principal, table domain.TableName, id string, fields map[string]string,
) (*domain.Row, error) {
	m.rowUpdates++
	m.lastTable, m.lastID, m.lastFields = table, id, fields
	return m.row, m.err
}

func (m *mockTableService) Append(
	_ context.Context, _ *domain.Principal, table domain.TableName, fields map[string]string,
) (*domain.Row, error) {
	m.appends++
	m.lastTable, m.lastFields = table, fields
	return m.row, m.err
}

// mockPOService is a mock implementation of driving.PurchaseOrderService.
type mockPOService struct {
	summary *domain.POSummary
	err     error
	cleared int
}

func (m *mockPOService) Summary(_ context.Context) (*domain.POSummary, error) {
	return m.summary, m.err
}

func (m *mockPOService) ClearCache() {
	m.cleared++
}

// mockFileService is a mock implementation of driving.FileService.
type mockFileService struct {
	files      []domain.DriveFile
	err        error
	lastFolder string
	lastName   string
	lastMIME   string
	lastBody   []byte
}

func (m *mockFileService) Folders(_ *domain.Principal) []domain.FolderSpec {
	return []domain.FolderSpec{{Key: "reports", Title: "Reports"}}
}

func (m *mockFileService) List(_ context.Context, _ *domain.Principal, folder string) ([]domain.DriveFile, error) {
	m.lastFolder = folder
	return m.files, m.err
}

func (m *mockFileService) Upload(
	_ context.Context, _ *domain.Principal, folder, name, mimeType string, content []byte,
) (*domain.DriveFile, error) {
	m.lastFolder, m.lastName, m.lastMIME, m.lastBody = folder, name, mimeType, content
	if m.err != nil {
		return nil, m.err
	}
	return &domain.DriveFile{
		ID:        "file-1",
		Name:      name,
		MimeType:  mimeType,
		Size:      int64(len(content)),
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

func principalFor(id string, role domain.Role) *domain.Principal {
	return &domain.Principal{
		User:        domain.User{ID: id, Email: id + "@zmg.test", Role: role, Active: true},
		Permissions: domain.DefaultRolePermissions().For(role),
	}
}
