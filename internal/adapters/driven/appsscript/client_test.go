package appsscript

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

// newScriptServer mimics a deployed web app: POST /exec redirects to /echo,
// which serves the JSON produced by handle.
func newScriptServer(t *testing.T, handle func(req request) (int, any)) (*httptest.Server, *[]request) {
	t.Helper()
	var received []request
	var pending any
	var status int

	mux := http.NewServeMux()
	mux.HandleFunc("/exec", func(w http.ResponseWriter, r *http.Request) {
		var req request
		if r.Method != http.MethodPost || json.NewDecoder(r.Body).Decode(&req) != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		received = append(received, req)
		status, pending = handle(req)
		http.Redirect(w, r, "/echo", http.StatusFound)
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
		}
		switch body := pending.(type) {
		case string:
			_, _ = w.Write([]byte(body))
		default:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(body)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &received
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{URL: url + "/exec", Secret: "s3cret", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClient_List(t *testing.T) {
	srv, received := newScriptServer(t, func(req request) (int, any) {
		return http.StatusOK, map[string]any{
			"success": true,
			"files": []map[string]any{
				{"id": "a", "name": "plan.xlsx", "mimeType": "application/vnd.ms-excel", "size": 12, "createdAt": "2026-01-05T09:00:00Z"},
				{"id": "b", "name": "photo.jpg", "mimeType": "image/jpeg", "size": 99, "url": "https://drive.google.com/open?id=b"},
			},
		}
	})
	c := newTestClient(t, srv.URL)

	files, err := c.List(context.Background(), "folder-9")
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "plan.xlsx", files[0].Name)
	assert.Equal(t, "https://drive.google.com/file/d/a/view", files[0].URL)
	assert.Equal(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), files[0].CreatedAt)
	assert.Equal(t, "https://drive.google.com/open?id=b", files[1].URL)

	require.Len(t, *received, 1)
	got := (*received)[0]
	assert.Equal(t, "list", got.Action)
	assert.Equal(t, "folder-9", got.FolderID)
	assert.Equal(t, "s3cret", got.Secret)
}

func TestClient_Upload(t *testing.T) {
	srv, received := newScriptServer(t, func(req request) (int, any) {
		return http.StatusOK, map[string]any{
			"success": true,
			"file":    map[string]any{"id": "new", "name": req.FileName, "mimeType": req.MimeType, "size": 5},
		}
	})
	c := newTestClient(t, srv.URL)

	file, err := c.Upload(context.Background(), domain.Upload{
		FolderID: "folder-9", Name: "notes.txt", MimeType: "text/plain", Content: []byte("hello"),
	})
	require.NoError(t, err)
	assert.Equal(t, "new", file.ID)
	assert.Equal(t, "notes.txt", file.Name)

	got := (*received)[0]
	assert.Equal(t, "upload", got.Action)
	decoded, err := base64.StdEncoding.DecodeString(got.Data)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(decoded))
}

func TestClient_ScriptFailure(t *testing.T) {
	srv, _ := newScriptServer(t, func(request) (int, any) {
		return http.StatusOK, map[string]any{"success": false, "error": "Folder not found"}
	})
	c := newTestClient(t, srv.URL)

	_, err := c.List(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScript)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_HTMLErrorPage(t *testing.T) {
	srv, _ := newScriptServer(t, func(request) (int, any) {
		return http.StatusOK, "<html><body>TypeError: x is undefined</body></html>"
	})
	c := newTestClient(t, srv.URL)

	_, err := c.List(context.Background(), "f")
	assert.ErrorIs(t, err, ErrScript)
}

func TestClient_RateLimited(t *testing.T) {
	srv, _ := newScriptServer(t, func(request) (int, any) {
		return http.StatusTooManyRequests, "slow down"
	})
	c := newTestClient(t, srv.URL)

	_, err := c.List(context.Background(), "f")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestClient_UploadWithoutFile(t *testing.T) {
	srv, _ := newScriptServer(t, func(request) (int, any) {
		return http.StatusOK, map[string]any{"success": true}
	})
	c := newTestClient(t, srv.URL)

	_, err := c.Upload(context.Background(), domain.Upload{FolderID: "f", Name: "a", Content: []byte("x")})
	assert.ErrorIs(t, err, ErrScript)
}

func TestSnippet_CutsOnRuneBoundary(t *testing.T) {
	body := []byte(strings.Repeat("a", maxSnippet-1) + strings.Repeat("ü", 10))

	got := snippet(body)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", maxSnippet-1)+"...", got)

	assert.Equal(t, "short", snippet([]byte("  short \n")))
}
