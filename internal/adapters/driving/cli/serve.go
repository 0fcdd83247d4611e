package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/zmg-ops/zmg-management/internal/adapters/driven/config/file"
	"github.com/zmg-ops/zmg-management/internal/adapters/driving/httpapi"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driving"
	"github.com/zmg-ops/zmg-management/internal/logger"
)

// purgeInterval is how often expired sessions and codes are removed.
const purgeInterval = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web API server",
	Long: `Start the JSON API used by the browser UI.

The server reloads role permissions when the config file changes and
shuts down gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("closing stores: %v", err)
		}
	}()

	settings := *app.Settings
	if serveAddr != "" {
		settings.Server.Addr = serveAddr
	}

	server := httpapi.NewServer(httpapi.Deps{
		Auth:           app.Auth,
		Users:          app.Users,
		Tables:         app.Tables,
		PurchaseOrders: app.PurchaseOrders,
		Files:          app.Files,
	}, &settings)

	go purgeLoop(ctx, app.Auth, purgeInterval)

	if app.Config != nil {
		watcher := file.NewWatcher(app.Config, func() { reloadPermissions(app) })
		if err := watcher.Start(ctx); err != nil {
			logger.Warn("config watcher disabled: %v", err)
		} else {
			defer watcher.Stop()
		}
	}

	logger.Info("zmg %s serving %s", version, settings.Server.BaseURL)
	return server.ListenAndServe(ctx)
}

// purgeLoop removes expired sessions and codes until ctx is done.
func purgeLoop(ctx context.Context, auth driving.AuthService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.PurgeExpired(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("purging expired sessions: %v", err)
			}
		}
	}
}

// reloadPermissions re-applies the role map after a config change.
// Other settings take effect on restart.
func reloadPermissions(app *App) {
	if app.SettingsService == nil {
		return
	}
	settings, err := app.SettingsService.Get()
	if err != nil {
		logger.Warn("reading reloaded settings: %v", err)
		return
	}
	app.Auth.SetPermissions(settings.Permissions)
	logger.Info("role permissions reloaded")
}
