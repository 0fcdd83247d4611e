package driving

import "github.com/zmg-ops/zmg-management/internal/core/domain"

// SettingsService reads application settings.
type SettingsService interface {
	// Get returns settings with defaults applied.
	Get() (*domain.AppSettings, error)

	// Validate checks that settings are complete enough to serve requests.
	Validate() error
}
