package driven

import (
	"context"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

// FileGateway lists and stores files in Google Drive folders.
type FileGateway interface {
	// List returns the files directly inside a folder. Trashed files are excluded.
	List(ctx context.Context, folderID string) ([]domain.DriveFile, error)

	// Upload stores a file in a folder and returns its metadata.
	Upload(ctx context.Context, upload domain.Upload) (*domain.DriveFile, error)
}
