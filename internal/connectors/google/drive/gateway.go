// Package drive implements the Drive API file backend.
package drive

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/zmg-ops/zmg-management/internal/connectors/google"
	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
	"github.com/zmg-ops/zmg-management/internal/logger"
)

// PageSize is the number of files requested per list call.
const PageSize = 100

// Ensure Gateway implements the interface.
var _ driven.FileGateway = (*Gateway)(nil)

// Gateway lists and uploads files with the Drive v3 API.
type Gateway struct {
	svc     *drive.Service
	limiter *google.RateLimiter
}

// NewGateway creates a gateway. A nil limiter uses the Drive defaults.
func NewGateway(svc *drive.Service, limiter *google.RateLimiter) *Gateway {
	if limiter == nil {
		limiter = google.NewRateLimiter(google.ServiceDrive)
	}
	return &Gateway{svc: svc, limiter: limiter}
}

// List returns the files directly inside a folder. Sub-folders and trashed
// files are excluded.
func (g *Gateway) List(ctx context.Context, folderID string) ([]domain.DriveFile, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false and mimeType != '%s'",
		escapeQuery(folderID), MimeTypeFolder)

	var files []domain.DriveFile
	pageToken := ""
	for {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := g.svc.Files.List().
			Q(q).
			Fields(googleapi.Field("nextPageToken, files(" + fileFields + ")")).
			PageSize(PageSize).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			g.limiter.Observe(err)
			return nil, fmt.Errorf("drive list %s: %w", folderID, google.WrapError(err))
		}

		for _, f := range resp.Files {
			files = append(files, ToDriveFile(f))
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return files, nil
}

// Upload stores a file in a folder with a multipart media upload.
func (g *Gateway) Upload(ctx context.Context, upload domain.Upload) (*domain.DriveFile, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	meta := &drive.File{
		Name:     upload.Name,
		MimeType: upload.MimeType,
		Parents:  []string{upload.FolderID},
	}
	created, err := g.svc.Files.Create(meta).
		Media(bytes.NewReader(upload.Content), googleapi.ContentType(upload.MimeType)).
		Fields(googleapi.Field(fileFields)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		g.limiter.Observe(err)
		return nil, fmt.Errorf("drive upload %s: %w", upload.Name, google.WrapError(err))
	}

	file := ToDriveFile(created)
	logger.Debug("drive: uploaded %s (%d bytes) as %s", file.Name, len(upload.Content), file.ID)
	return &file, nil
}

// escapeQuery escapes a value for a single-quoted Drive query literal.
func escapeQuery(v string) string {
	return strings.NewReplacer(`\`, `\\`, "'", `\'`).Replace(v)
}
