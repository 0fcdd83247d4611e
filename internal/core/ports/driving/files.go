package driving

import (
	"context"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

// FileService exposes configured Drive folders.
type FileService interface {
	// Folders returns the folders the principal may view.
	Folders(principal *domain.Principal) []domain.FolderSpec

	// List returns the files in a folder, newest first.
	List(ctx context.Context, principal *domain.Principal, folderKey string) ([]domain.DriveFile, error)

	// Upload stores a file in a folder.
	Upload(
		ctx context.Context, principal *domain.Principal, folderKey, name, mimeType string, content []byte,
	) (*domain.DriveFile, error)
}
