package drive

import (
	"time"

	"google.golang.org/api/drive/v3"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

// MimeTypeFolder is the MIME type Drive uses for folders.
const MimeTypeFolder = "application/vnd.google-apps.folder"

// fileFields selects the metadata mapped into domain.DriveFile.
const fileFields = "id, name, mimeType, size, webViewLink, createdTime"

// ToDriveFile converts Drive API metadata to a domain file.
func ToDriveFile(f *drive.File) domain.DriveFile {
	out := domain.DriveFile{
		ID:       f.Id,
		Name:     f.Name,
		MimeType: f.MimeType,
		Size:     f.Size,
		URL:      ResolveWebURL(f.Id, f.WebViewLink),
	}
	if t, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
		out.CreatedAt = t.UTC()
	}
	return out
}
