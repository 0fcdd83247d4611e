package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyServerAddr           = "server.addr"
	keyServerBaseURL        = "server.base_url"
	keyServerCookieName     = "server.cookie_name"
	keyServerCookieSecure   = "server.cookie_secure"
	keyServerAllowedOrigins = "server.allowed_origins"
	keyServerDataDir        = "server.data_dir"

	keyAuthJWTSecret     = "auth.jwt_secret"
	keyAuthSessionTTL    = "auth.session_ttl"
	keyAuthCodeTTL       = "auth.code_ttl"
	keyAuthSetupTokenTTL = "auth.setup_token_ttl"
	keyAuthLoginAttempts = "auth.login_attempts"
	keyAuthLoginWindow   = "auth.login_window"
	keyAuthUsersSheetID  = "auth.users_spreadsheet_id"
	keyAuthUsersSheet    = "auth.users_sheet"
	keyAuthServiceRole   = "auth.service_role"

	keyGoogleCredentials = "google.credentials_file"

	keyFilesBackend         = "files.backend"
	keyFilesAppsScriptURL   = "files.apps_script_url"
	keyFilesAppsScriptToken = "files.apps_script_token"
	keyFilesMaxUploadBytes  = "files.max_upload_bytes"
	prefixFilesFolders      = "files.folders."

	keyMailProvider   = "mail.provider"
	keyMailAPIKey     = "mail.api_key"
	keyMailFrom       = "mail.from"
	keyMailTemplateID = "mail.template_id"

	keyCachePOSummaryTTL  = "cache.po_summary_ttl"
	keyCacheStatusColumn  = "cache.status_column"
	keyCacheProjectColumn = "cache.project_column"

	prefixTables      = "tables."
	prefixPermissions = "permissions."
)

// SettingsService builds application settings from the config store.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings with defaults applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Server: domain.ServerSettings{
			Addr:           s.getString(keyServerAddr, defaults.Server.Addr),
			BaseURL:        strings.TrimRight(s.getString(keyServerBaseURL, defaults.Server.BaseURL), "/"),
			CookieName:     s.getString(keyServerCookieName, defaults.Server.CookieName),
			CookieSecure:   s.getBool(keyServerCookieSecure, defaults.Server.CookieSecure),
			AllowedOrigins: s.configStore.GetStringSlice(keyServerAllowedOrigins),
			DataDir:        s.configStore.GetString(keyServerDataDir), // Empty means ~/.zmg/data
		},
		Auth: domain.AuthSettings{
			JWTSecret:     s.configStore.GetString(keyAuthJWTSecret),
			SessionTTL:    s.getDuration(keyAuthSessionTTL, defaults.Auth.SessionTTL),
			CodeTTL:       s.getDuration(keyAuthCodeTTL, defaults.Auth.CodeTTL),
			SetupTokenTTL: s.getDuration(keyAuthSetupTokenTTL, defaults.Auth.SetupTokenTTL),
			LoginAttempts: s.getInt(keyAuthLoginAttempts, defaults.Auth.LoginAttempts),
			LoginWindow:   s.getDuration(keyAuthLoginWindow, defaults.Auth.LoginWindow),
			UsersSheetID:  s.configStore.GetString(keyAuthUsersSheetID),
			UsersSheet:    s.getString(keyAuthUsersSheet, defaults.Auth.UsersSheet),
			ServiceRole:   domain.Role(s.getString(keyAuthServiceRole, string(defaults.Auth.ServiceRole))),
		},
		Google: domain.GoogleSettings{
			CredentialsFile: s.configStore.GetString(keyGoogleCredentials),
		},
		Tables: s.getTables(defaults.Tables),
		Files: domain.FileSettings{
			Backend:         domain.FileBackend(s.getString(keyFilesBackend, string(defaults.Files.Backend))),
			AppsScriptURL:   s.configStore.GetString(keyFilesAppsScriptURL),
			AppsScriptToken: s.configStore.GetString(keyFilesAppsScriptToken),
			MaxUploadBytes:  int64(s.getInt(keyFilesMaxUploadBytes, int(defaults.Files.MaxUploadBytes))),
			Folders:         s.getFolders(),
		},
		Mail: domain.MailSettings{
			Provider:   domain.MailProvider(s.getString(keyMailProvider, string(defaults.Mail.Provider))),
			APIKey:     s.configStore.GetString(keyMailAPIKey),
			From:       s.configStore.GetString(keyMailFrom),
			TemplateID: s.configStore.GetString(keyMailTemplateID),
		},
		Cache: domain.CacheSettings{
			POSummaryTTL:  s.getDuration(keyCachePOSummaryTTL, defaults.Cache.POSummaryTTL),
			StatusColumn:  s.getString(keyCacheStatusColumn, defaults.Cache.StatusColumn),
			ProjectColumn: s.getString(keyCacheProjectColumn, defaults.Cache.ProjectColumn),
		},
		Permissions: s.getPermissions(defaults.Permissions),
	}

	return settings, nil
}

// Validate checks that settings are complete enough to serve requests.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// Permissions returns the role to permission mapping, re-read from the store.
func (s *SettingsService) Permissions() domain.RolePermissions {
	return s.getPermissions(domain.DefaultRolePermissions())
}

// getTables overlays tables.<name>.* keys on the built-in schemas.
// A table with enabled = false is left out.
func (s *SettingsService) getTables(defaults []domain.TableSchema) []domain.TableSchema {
	tables := make([]domain.TableSchema, 0, len(defaults))
	for _, t := range defaults {
		base := prefixTables + string(t.Name) + "."
		if _, ok := s.configStore.Get(base + "enabled"); ok && !s.configStore.GetBool(base+"enabled") {
			continue
		}
		t.SpreadsheetID = s.configStore.GetString(base + "spreadsheet_id")
		t.Title = s.getString(base+"title", t.Title)
		t.Sheet = s.getString(base+"sheet", t.Sheet)
		t.IDColumn = s.getString(base+"id_column", t.IDColumn)
		if cols := s.configStore.GetStringSlice(base + "read_only_columns"); cols != nil {
			t.ReadOnlyColumns = cols
		}
		tables = append(tables, t)
	}
	return tables
}

// getFolders reads files.folders.<key>.{folder_id,title,view_permission,upload_permission}.
// Folders without a folder_id are skipped.
func (s *SettingsService) getFolders() []domain.FolderSpec {
	seen := make(map[string]bool)
	var folders []domain.FolderSpec
	for _, key := range s.configStore.Keys(prefixFilesFolders) {
		rest := strings.TrimPrefix(key, prefixFilesFolders)
		dot := strings.LastIndex(rest, ".")
		if dot <= 0 {
			continue
		}
		name := rest[:dot]
		if seen[name] {
			continue
		}
		seen[name] = true

		base := prefixFilesFolders + name + "."
		folderID := s.configStore.GetString(base + "folder_id")
		if folderID == "" {
			continue
		}
		folders = append(folders, domain.FolderSpec{
			Key:              name,
			Title:            s.getString(base+"title", name),
			FolderID:         folderID,
			ViewPermission:   s.getPermission(base+"view_permission", domain.PermViewFiles),
			UploadPermission: s.getPermission(base+"upload_permission", domain.PermUploadFiles),
		})
	}
	return folders
}

func (s *SettingsService) getPermissions(defaults domain.RolePermissions) domain.RolePermissions {
	perms := defaults.Clone()
	for _, role := range domain.AllRoles {
		key := prefixPermissions + string(role)
		if _, ok := s.configStore.Get(key); ok {
			perms.Override(role, s.configStore.GetStringSlice(key))
		}
	}
	return perms
}

func (s *SettingsService) getPermission(key string, def domain.Permission) domain.Permission {
	p := domain.Permission(s.configStore.GetString(key))
	if p.IsValid() {
		return p
	}
	return def
}

func (s *SettingsService) getString(key, def string) string {
	if val := strings.TrimSpace(s.configStore.GetString(key)); val != "" {
		return val
	}
	return def
}

func (s *SettingsService) getInt(key string, def int) int {
	if val := s.configStore.GetInt(key); val > 0 {
		return val
	}
	return def
}

func (s *SettingsService) getBool(key string, def bool) bool {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetBool(key)
	}
	return def
}

func (s *SettingsService) getDuration(key string, def time.Duration) time.Duration {
	if val := s.configStore.GetDuration(key); val > 0 {
		return val
	}
	return def
}

// Describe summarises settings for the startup log without secrets.
func Describe(settings *domain.AppSettings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "addr=%s base_url=%s", settings.Server.Addr, settings.Server.BaseURL)
	fmt.Fprintf(&b, " tables=%d folders=%d", len(settings.Tables), len(settings.Files.Folders))
	fmt.Fprintf(&b, " files=%s mail=%s", settings.Files.Backend, settings.Mail.Provider)
	fmt.Fprintf(&b, " session_ttl=%s po_cache_ttl=%s", settings.Auth.SessionTTL, settings.Cache.POSummaryTTL)
	return b.String()
}
