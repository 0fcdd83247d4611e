// Package appsscript implements the file backend that proxies Drive access
// through a deployed Google Apps Script web app.
//
// The web app accepts a JSON POST:
//
//	{"action": "upload"|"list", "folderId": "...", "fileName": "...",
//	 "mimeType": "...", "data": "<base64>", "secret": "..."}
//
// and answers with {"success": bool, "error": "...", "file": {...}, "files": [...]}.
// Apps Script replies to POST with a 302 to the rendered output; the client
// follows it.
package appsscript

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zmg-ops/zmg-management/internal/connectors/google"
	gdrive "github.com/zmg-ops/zmg-management/internal/connectors/google/drive"
	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
	"github.com/zmg-ops/zmg-management/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.FileGateway = (*Client)(nil)

// Default configuration values.
const (
	DefaultTimeout = 120 * time.Second
	// maxResponseBytes caps the decoded response body.
	maxResponseBytes = 8 << 20
)

// ErrScript is returned when the web app reports a failure.
var ErrScript = errors.New("apps script error")

// Config holds configuration for the Apps Script client.
type Config struct {
	// URL is the deployed web-app URL (https://script.google.com/macros/s/<id>/exec).
	URL string
	// Secret is a shared token checked by the script.
	Secret string
	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Client talks to the Apps Script web app.
type Client struct {
	client  *http.Client
	url     string
	secret  string
	limiter *google.RateLimiter
}

type request struct {
	Action   string `json:"action"`
	FolderID string `json:"folderId"`
	FileName string `json:"fileName,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
	Secret   string `json:"secret,omitempty"`
}

type scriptFile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MimeType  string `json:"mimeType"`
	Size      int64  `json:"size"`
	URL       string `json:"url"`
	CreatedAt string `json:"createdAt"`
}

type response struct {
	Success bool         `json:"success"`
	Error   string       `json:"error"`
	File    *scriptFile  `json:"file"`
	Files   []scriptFile `json:"files"`
}

// NewClient creates an Apps Script client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: apps script url is required", domain.ErrInvalidInput)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		url:     cfg.URL,
		secret:  cfg.Secret,
		limiter: google.NewRateLimiter(google.ServiceAppsScript),
	}, nil
}

// List returns the files directly inside a folder.
func (c *Client) List(ctx context.Context, folderID string) ([]domain.DriveFile, error) {
	resp, err := c.call(ctx, request{Action: "list", FolderID: folderID})
	if err != nil {
		return nil, err
	}

	files := make([]domain.DriveFile, 0, len(resp.Files))
	for _, f := range resp.Files {
		files = append(files, f.toDomain())
	}
	return files, nil
}

// Upload sends the file content base64-encoded and returns the stored file.
func (c *Client) Upload(ctx context.Context, upload domain.Upload) (*domain.DriveFile, error) {
	resp, err := c.call(ctx, request{
		Action:   "upload",
		FolderID: upload.FolderID,
		FileName: upload.Name,
		MimeType: upload.MimeType,
		Data:     base64.StdEncoding.EncodeToString(upload.Content),
	})
	if err != nil {
		return nil, err
	}
	if resp.File == nil {
		return nil, fmt.Errorf("%w: upload response has no file", ErrScript)
	}

	file := resp.File.toDomain()
	logger.Debug("appsscript: uploaded %s (%d bytes) as %s", file.Name, len(upload.Content), file.ID)
	return &file, nil
}

func (c *Client) call(ctx context.Context, body request) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	body.Secret = c.secret

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apps script %s: %w", body.Action, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case httpResp.StatusCode == http.StatusTooManyRequests:
		c.limiter.RecordRateLimitError(0)
		return nil, fmt.Errorf("apps script %s: %w", body.Action, domain.ErrRateLimited)
	case httpResp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("apps script %s: status %d: %s", body.Action, httpResp.StatusCode, snippet(raw))
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		// Apps Script serves an HTML error page when the script throws.
		return nil, fmt.Errorf("%w: unexpected response: %s", ErrScript, snippet(raw))
	}
	if !resp.Success {
		return nil, classify(resp.Error)
	}
	return &resp, nil
}

// classify maps script error messages to domain errors where they match.
func classify(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "not found") || strings.Contains(lower, "no item with the given id"):
		return fmt.Errorf("%w: %s: %w", ErrScript, msg, domain.ErrNotFound)
	case strings.Contains(lower, "unauthori") || strings.Contains(lower, "secret"):
		return fmt.Errorf("%w: %s: %w", ErrScript, msg, google.ErrUnauthorized)
	default:
		return fmt.Errorf("%w: %s", ErrScript, msg)
	}
}

const maxSnippet = 200

// snippet shortens a response body for error text, cutting on a rune boundary.
func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= maxSnippet {
		return s
	}
	cut := maxSnippet
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func (f scriptFile) toDomain() domain.DriveFile {
	out := domain.DriveFile{
		ID:       f.ID,
		Name:     f.Name,
		MimeType: f.MimeType,
		Size:     f.Size,
		URL:      gdrive.ResolveWebURL(f.ID, f.URL),
	}
	if t, err := time.Parse(time.RFC3339, f.CreatedAt); err == nil {
		out.CreatedAt = t.UTC()
	}
	return out
}
