package services

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driving"
	"github.com/zmg-ops/zmg-management/internal/logger"
)

// Ensure FileService implements the interface.
var _ driving.FileService = (*FileService)(nil)

// FileService lists and uploads files in the configured Drive folders.
type FileService struct {
	gateway  driven.FileGateway
	folders  []domain.FolderSpec
	maxBytes int64
}

// NewFileService creates a new file service.
func NewFileService(gateway driven.FileGateway, cfg domain.FileSettings) *FileService {
	return &FileService{
		gateway:  gateway,
		folders:  cfg.Folders,
		maxBytes: cfg.MaxUploadBytes,
	}
}

// MaxUploadBytes returns the upload size limit.
func (s *FileService) MaxUploadBytes() int64 {
	return s.maxBytes
}

// Folders returns the folders the principal may view.
func (s *FileService) Folders(principal *domain.Principal) []domain.FolderSpec {
	visible := make([]domain.FolderSpec, 0, len(s.folders))
	for _, f := range s.folders {
		if principal.Can(f.ViewPermission) {
			visible = append(visible, f)
		}
	}
	return visible
}

// List returns the files in a folder, newest first.
func (s *FileService) List(
	ctx context.Context, principal *domain.Principal, folderKey string,
) ([]domain.DriveFile, error) {
	folder, err := s.authorize(principal, folderKey, false)
	if err != nil {
		return nil, err
	}
	files, err := s.gateway.List(ctx, folder.FolderID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", folder.Key, err)
	}
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].CreatedAt.After(files[j].CreatedAt)
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// Upload stores a file in a folder.
// The name is sanitised and an empty MIME type is sniffed from the content.
func (s *FileService) Upload(
	ctx context.Context, principal *domain.Principal, folderKey, name, mimeType string, content []byte,
) (*domain.DriveFile, error) {
	folder, err := s.authorize(principal, folderKey, true)
	if err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrInvalidInput)
	}
	if s.maxBytes > 0 && int64(len(content)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrFileTooLarge, len(content), s.maxBytes)
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(content)
	}

	file, err := s.gateway.Upload(ctx, domain.Upload{
		FolderID: folder.FolderID,
		Name:     domain.SanitizeFileName(name),
		MimeType: mimeType,
		Content:  content,
	})
	if err != nil {
		return nil, fmt.Errorf("upload to %s: %w", folder.Key, err)
	}
	logger.Info("files: %s uploaded %q (%d bytes) to %s", principal.User.Email, file.Name, len(content), folder.Key)
	return file, nil
}

func (s *FileService) authorize(
	principal *domain.Principal, key string, upload bool,
) (domain.FolderSpec, error) {
	var folder *domain.FolderSpec
	for i := range s.folders {
		if s.folders[i].Key == key {
			folder = &s.folders[i]
			break
		}
	}
	if folder == nil {
		return domain.FolderSpec{}, fmt.Errorf("%w: %q", domain.ErrUnknownFolder, key)
	}
	if principal == nil {
		return domain.FolderSpec{}, domain.ErrUnauthenticated
	}
	perm := folder.ViewPermission
	if upload {
		perm = folder.UploadPermission
	}
	if !principal.Can(perm) {
		return domain.FolderSpec{}, fmt.Errorf("%w: folder %s requires %s", domain.ErrForbidden, key, perm)
	}
	return *folder, nil
}
