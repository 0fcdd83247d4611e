package domain

import (
	"path"
	"strings"
	"time"
	"unicode"
)

// DriveFile is a file stored in a Google Drive folder.
type DriveFile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FolderSpec is a configured Drive folder exposed by the application.
type FolderSpec struct {
	Key              string     `json:"key"`
	Title            string     `json:"title"`
	FolderID         string     `json:"-"`
	ViewPermission   Permission `json:"-"`
	UploadPermission Permission `json:"-"`
}

// Upload is a file to be stored in a folder.
type Upload struct {
	FolderID string
	Name     string
	MimeType string
	Content  []byte
}

const maxFileNameRunes = 200

// SanitizeFileName strips directories and characters Drive or browsers choke on.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" {
		name = ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsControl(r):
			continue
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	if runes := []rune(out); len(runes) > maxFileNameRunes {
		out = strings.TrimSpace(string(runes[:maxFileNameRunes]))
	}
	if out == "" || out == ".." {
		return "file"
	}
	return out
}
