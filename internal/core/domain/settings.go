package domain

import (
	"fmt"
	"time"
)

// FileBackend selects how Drive folders are accessed.
type FileBackend string

// Available file backends.
const (
	// FileBackendAppsScript proxies Drive through a deployed Apps Script web app.
	FileBackendAppsScript FileBackend = "appsscript"

	// FileBackendDrive calls the Drive API directly with the service account.
	FileBackendDrive FileBackend = "drive"
)

// IsValid returns true if the backend is recognised.
func (b FileBackend) IsValid() bool {
	return b == FileBackendAppsScript || b == FileBackendDrive
}

// MailProvider selects how verification codes are delivered.
type MailProvider string

// Available mail providers.
const (
	// MailProviderSendGrid delivers through the SendGrid API.
	MailProviderSendGrid MailProvider = "sendgrid"

	// MailProviderLog writes messages to the log (development only).
	MailProviderLog MailProvider = "log"
)

// IsValid returns true if the provider is recognised.
func (p MailProvider) IsValid() bool {
	return p == MailProviderSendGrid || p == MailProviderLog
}

// ServerSettings configures the HTTP listener and cookies.
type ServerSettings struct {
	Addr           string
	BaseURL        string
	CookieName     string
	CookieSecure   bool
	AllowedOrigins []string
	DataDir        string
}

// AuthSettings configures sessions, codes and tokens.
type AuthSettings struct {
	JWTSecret     string
	SessionTTL    time.Duration
	CodeTTL       time.Duration
	SetupTokenTTL time.Duration
	LoginAttempts int
	LoginWindow   time.Duration
	UsersSheetID  string
	UsersSheet    string
	ServiceRole   Role
}

// GoogleSettings configures access to Google APIs.
type GoogleSettings struct {
	CredentialsFile string
}

// FileSettings configures the Drive folders and upload backend.
type FileSettings struct {
	Backend         FileBackend
	AppsScriptURL   string
	AppsScriptToken string
	MaxUploadBytes  int64
	Folders         []FolderSpec
}

// MailSettings configures verification mail delivery.
type MailSettings struct {
	Provider   MailProvider
	APIKey     string
	From       string
	TemplateID string
}

// CacheSettings configures the purchase-order summary cache.
type CacheSettings struct {
	POSummaryTTL  time.Duration
	StatusColumn  string
	ProjectColumn string
}

// AppSettings holds all application configuration.
type AppSettings struct {
	Server      ServerSettings
	Auth        AuthSettings
	Google      GoogleSettings
	Tables      []TableSchema
	Files       FileSettings
	Mail        MailSettings
	Cache       CacheSettings
	Permissions RolePermissions
}

// DefaultAppSettings returns settings with every default applied.
func DefaultAppSettings() *AppSettings {
	return &AppSettings{
		Server: ServerSettings{
			Addr:       ":8080",
			BaseURL:    "http://localhost:8080",
			CookieName: "zmg_session",
		},
		Auth: AuthSettings{
			SessionTTL:    12 * time.Hour,
			CodeTTL:       10 * time.Minute,
			SetupTokenTTL: 48 * time.Hour,
			LoginAttempts: 5,
			LoginWindow:   15 * time.Minute,
			UsersSheet:    "Users",
			ServiceRole:   RoleViewer,
		},
		Tables: DefaultTableSchemas(),
		Files: FileSettings{
			Backend:        FileBackendAppsScript,
			MaxUploadBytes: 20 << 20,
		},
		Mail: MailSettings{
			Provider: MailProviderLog,
		},
		Cache: CacheSettings{
			POSummaryTTL:  5 * time.Minute,
			StatusColumn:  "Status",
			ProjectColumn: "Project",
		},
		Permissions: DefaultRolePermissions(),
	}
}

// MinJWTSecretLength is the minimum accepted HMAC secret length in bytes.
const MinJWTSecretLength = 32

// Validate checks the settings needed to serve requests.
func (s *AppSettings) Validate() error {
	if len(s.Auth.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("%w: auth.jwt_secret must be at least %d bytes", ErrInvalidInput, MinJWTSecretLength)
	}
	if s.Auth.SessionTTL <= 0 || s.Auth.CodeTTL <= 0 || s.Auth.SetupTokenTTL <= 0 {
		return fmt.Errorf("%w: auth TTLs must be positive", ErrInvalidInput)
	}
	if !s.Auth.ServiceRole.IsValid() {
		return fmt.Errorf("%w: unknown service role %q", ErrInvalidInput, s.Auth.ServiceRole)
	}
	for _, t := range s.Tables {
		if t.SpreadsheetID == "" {
			return fmt.Errorf("%w: tables.%s.spreadsheet_id is required", ErrInvalidInput, t.Name)
		}
	}
	if !s.Files.Backend.IsValid() {
		return fmt.Errorf("%w: unknown file backend %q", ErrInvalidInput, s.Files.Backend)
	}
	if s.Files.Backend == FileBackendAppsScript && len(s.Files.Folders) > 0 && s.Files.AppsScriptURL == "" {
		return fmt.Errorf("%w: files.apps_script_url is required for the appsscript backend", ErrInvalidInput)
	}
	if !s.Mail.Provider.IsValid() {
		return fmt.Errorf("%w: unknown mail provider %q", ErrInvalidInput, s.Mail.Provider)
	}
	if s.Mail.Provider == MailProviderSendGrid && (s.Mail.APIKey == "" || s.Mail.From == "") {
		return fmt.Errorf("%w: mail.api_key and mail.from are required for sendgrid", ErrInvalidInput)
	}
	return nil
}

// Table returns the schema of the named table.
func (s *AppSettings) Table(name TableName) (TableSchema, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableSchema{}, false
}
