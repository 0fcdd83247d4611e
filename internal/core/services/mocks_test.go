package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
)

// ==================== Spreadsheet ====================

var cellPattern = regexp.MustCompile(`^'((?:[^']|'')*)'!([A-Z]+)(\d+)$`)

// mockSheets is an in-memory spreadsheet keyed by spreadsheet ID and sheet name.
type mockSheets struct {
	mu      sync.Mutex
	grids   map[string][][]string
	reads   int
	updates [][]domain.CellWrite
	appends [][]string
	readErr error
	gate    chan struct{}
}

func newMockSheets() *mockSheets {
	return &mockSheets{grids: make(map[string][][]string)}
}

func gridKey(spreadsheetID, sheet string) string {
	return spreadsheetID + "/" + sheet
}

func (m *mockSheets) set(spreadsheetID, sheet string, rows ...[]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grids[gridKey(spreadsheetID, sheet)] = rows
}

func (m *mockSheets) cell(spreadsheetID, sheet string, row, col int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	grid := m.grids[gridKey(spreadsheetID, sheet)]
	if row-1 >= len(grid) || col >= len(grid[row-1]) {
		return ""
	}
	return grid[row-1][col]
}

func (m *mockSheets) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

func (m *mockSheets) Read(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.readErr != nil {
		return nil, m.readErr
	}
	sheet := strings.ReplaceAll(strings.Trim(rng, "'"), "''", "'")
	grid := m.grids[gridKey(spreadsheetID, sheet)]
	out := make([][]string, len(grid))
	for i, row := range grid {
		out[i] = append([]string{}, row...)
	}
	return out, nil
}

func (m *mockSheets) Update(_ context.Context, spreadsheetID string, cells []domain.CellWrite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, cells)
	for _, c := range cells {
		match := cellPattern.FindStringSubmatch(c.Range)
		if match == nil {
			return fmt.Errorf("bad range %q", c.Range)
		}
		sheet := strings.ReplaceAll(match[1], "''", "'")
		col, err := domain.ColumnIndex(match[2])
		if err != nil {
			return err
		}
		row, _ := strconv.Atoi(match[3])
		key := gridKey(spreadsheetID, sheet)
		grid := m.grids[key]
		for len(grid) < row {
			grid = append(grid, nil)
		}
		for len(grid[row-1]) <= col {
			grid[row-1] = append(grid[row-1], "")
		}
		grid[row-1][col] = c.Value
		m.grids[key] = grid
	}
	return nil
}

// Append mimics the Sheets API: starting at the anchor row it skips the block
// of contiguous non-blank rows found there and inserts after it.
func (m *mockSheets) Append(_ context.Context, spreadsheetID, sheet string, row int, values []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appends = append(m.appends, values)
	key := gridKey(spreadsheetID, sheet)
	grid := m.grids[key]
	at := row - 1
	for at < len(grid) && !blankRow(grid[at]) {
		at++
	}
	for len(grid) < at {
		grid = append(grid, nil)
	}
	grid = append(grid[:at], append([][]string{append([]string{}, values...)}, grid[at:]...)...)
	m.grids[key] = grid
	return at + 1, nil
}

var _ driven.SpreadsheetGateway = (*mockSheets)(nil)

// ==================== Mailer ====================

type mockMailer struct {
	mu     sync.Mutex
	codes  []driven.VerificationMail
	setups []driven.SetupMail
	err    error
}

func (m *mockMailer) SendVerificationCode(_ context.Context, msg driven.VerificationMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.codes = append(m.codes, msg)
	return nil
}

func (m *mockMailer) SendSetupLink(_ context.Context, msg driven.SetupMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.setups = append(m.setups, msg)
	return nil
}

func (m *mockMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.codes) == 0 {
		return ""
	}
	return m.codes[len(m.codes)-1].Code
}

var _ driven.Mailer = (*mockMailer)(nil)

// ==================== Attempt limiter ====================

// mockLimiter allows up to max attempts per key until reset.
type mockLimiter struct {
	mu     sync.Mutex
	max    int
	counts map[string]int
	resets []string
}

func newMockLimiter(maxAttempts int) *mockLimiter {
	return &mockLimiter{max: maxAttempts, counts: make(map[string]int)}
}

func (m *mockLimiter) Allow(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key] <= m.max
}

func (m *mockLimiter) Reset(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counts, key)
	m.resets = append(m.resets, key)
}

var _ driven.AttemptLimiter = (*mockLimiter)(nil)

// ==================== File gateway ====================

type mockFileGateway struct {
	mu       sync.Mutex
	files    map[string][]domain.DriveFile
	uploads  []domain.Upload
	err      error
	uploaded int
}

func newMockFileGateway() *mockFileGateway {
	return &mockFileGateway{files: make(map[string][]domain.DriveFile)}
}

func (m *mockFileGateway) List(_ context.Context, folderID string) ([]domain.DriveFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.DriveFile{}, m.files[folderID]...), nil
}

func (m *mockFileGateway) Upload(_ context.Context, upload domain.Upload) (*domain.DriveFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.uploaded++
	m.uploads = append(m.uploads, upload)
	file := domain.DriveFile{
		ID:       fmt.Sprintf("file-%d", m.uploaded),
		Name:     upload.Name,
		MimeType: upload.MimeType,
		Size:     int64(len(upload.Content)),
	}
	m.files[upload.FolderID] = append(m.files[upload.FolderID], file)
	return &file, nil
}

var _ driven.FileGateway = (*mockFileGateway)(nil)

// ==================== Principals ====================

func principalWith(role domain.Role) *domain.Principal {
	return &domain.Principal{
		User:        domain.User{ID: "u-" + string(role), Email: string(role) + "@example.com", Role: role, Active: true},
		Permissions: domain.DefaultRolePermissions().For(role),
	}
}
