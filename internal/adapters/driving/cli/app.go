package cli

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"

	"github.com/zmg-ops/zmg-management/internal/adapters/driven/appsscript"
	"github.com/zmg-ops/zmg-management/internal/adapters/driven/config/file"
	"github.com/zmg-ops/zmg-management/internal/adapters/driven/mail"
	"github.com/zmg-ops/zmg-management/internal/adapters/driven/ratelimit"
	"github.com/zmg-ops/zmg-management/internal/adapters/driven/sheets"
	"github.com/zmg-ops/zmg-management/internal/adapters/driven/storage/sqlite"
	"github.com/zmg-ops/zmg-management/internal/adapters/driven/token"
	"github.com/zmg-ops/zmg-management/internal/connectors/google"
	"github.com/zmg-ops/zmg-management/internal/connectors/google/drive"
	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driving"
	"github.com/zmg-ops/zmg-management/internal/core/services"
	"github.com/zmg-ops/zmg-management/internal/logger"
)

// App is the set of wired services a command runs against.
type App struct {
	Settings *domain.AppSettings

	Auth           driving.AuthService
	Users          driving.UserService
	Tables         driving.TableService
	PurchaseOrders driving.PurchaseOrderService
	Files          driving.FileService

	// Config and SettingsService are nil when the app is not file-backed.
	Config          *file.ConfigStore
	SettingsService driving.SettingsService

	closers []func() error
}

// Close releases storage handles.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// loadApp builds the App for the current flags. Tests replace it.
var loadApp = buildApp

func buildApp(ctx context.Context) (*App, error) {
	configStore, err := file.NewConfigStore(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	if err := settingsService.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", configStore.Path(), err)
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, err
	}
	logger.Debug("%s", services.Describe(settings))

	app := &App{
		Settings:        settings,
		Config:          configStore,
		SettingsService: settingsService,
	}

	googleOpts, err := googleOptions(ctx, settings.Google)
	if err != nil {
		return nil, err
	}
	sheetsService, err := google.NewSheetsService(ctx, googleOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets client: %w", err)
	}
	spreadsheets := sheets.NewGateway(sheetsService, google.NewRateLimiter(google.ServiceSheets))

	store, err := sqlite.NewStore(settings.Server.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	app.closers = append(app.closers, store.Close)

	issuer, err := token.NewJWTIssuer(settings.Auth.JWTSecret)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	fileGateway, err := newFileGateway(ctx, settings.Files, googleOpts)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	users := sheets.NewUserStore(spreadsheets, usersSpreadsheetID(settings), settings.Auth.UsersSheet)

	app.Auth = services.NewAuthService(services.AuthDeps{
		Users:    users,
		Sessions: store.SessionStore(),
		Codes:    store.CodeStore(),
		Tokens:   issuer,
		Mailer:   mail.New(settings.Mail),
		Limiter:  ratelimit.NewKeyedLimiter(settings.Auth.LoginAttempts, settings.Auth.LoginWindow),
	}, settings)
	app.Users = services.NewUserService(users, store.SessionStore())

	tables := services.NewTableService(spreadsheets, settings.Tables)
	if schema, ok := settings.Table(domain.TablePOStatus); ok {
		po := services.NewPurchaseOrderService(spreadsheets, schema, settings.Cache)
		tables.SetPOCache(po)
		app.PurchaseOrders = po
	}
	app.Tables = tables
	app.Files = services.NewFileService(fileGateway, settings.Files)

	return app, nil
}

// googleOptions authenticates with the configured service-account file, or
// with application default credentials when none is set.
func googleOptions(ctx context.Context, cfg domain.GoogleSettings) ([]option.ClientOption, error) {
	if cfg.CredentialsFile == "" {
		logger.Debug("google: no credentials file configured, using application default credentials")
		return nil, nil
	}
	opt, err := google.CredentialsOption(ctx, cfg.CredentialsFile, google.SheetsScope, google.DriveScope)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{opt}, nil
}

func newFileGateway(
	ctx context.Context, cfg domain.FileSettings, googleOpts []option.ClientOption,
) (driven.FileGateway, error) {
	switch cfg.Backend {
	case domain.FileBackendDrive:
		svc, err := google.NewDriveService(ctx, googleOpts...)
		if err != nil {
			return nil, fmt.Errorf("creating drive client: %w", err)
		}
		return drive.NewGateway(svc, google.NewRateLimiter(google.ServiceDrive)), nil
	default:
		if cfg.AppsScriptURL == "" {
			// Validate only insists on a URL when folders are configured.
			return unconfiguredFiles{}, nil
		}
		client, err := appsscript.NewClient(appsscript.Config{URL: cfg.AppsScriptURL, Secret: cfg.AppsScriptToken})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// usersSpreadsheetID falls back to the daily plan spreadsheet so a single
// document can hold both the users tab and the tables.
func usersSpreadsheetID(settings *domain.AppSettings) string {
	if settings.Auth.UsersSheetID != "" {
		return settings.Auth.UsersSheetID
	}
	if schema, ok := settings.Table(domain.TableDailyPlan); ok {
		return schema.SpreadsheetID
	}
	if len(settings.Tables) > 0 {
		return settings.Tables[0].SpreadsheetID
	}
	return ""
}

// unconfiguredFiles is the gateway used when no file backend is set up.
type unconfiguredFiles struct{}

var errNoFileBackend = fmt.Errorf("%w: no file backend configured", domain.ErrNotImplemented)

func (unconfiguredFiles) List(context.Context, string) ([]domain.DriveFile, error) {
	return nil, errNoFileBackend
}

func (unconfiguredFiles) Upload(context.Context, domain.Upload) (*domain.DriveFile, error) {
	return nil, errNoFileBackend
}
