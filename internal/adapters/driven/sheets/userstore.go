package sheets

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
)

// User sheet column headers, in the order they are created.
const (
	ColID                = "ID"
	ColEmail             = "Email"
	ColName              = "Name"
	ColRole              = "Role"
	ColPasswordHash      = "Password Hash"
	ColActive            = "Active"
	ColPasswordUpdatedAt = "Password Updated At"
	ColCreatedAt         = "Created At"
)

// UserColumns lists the user sheet headers.
var UserColumns = []string{
	ColID, ColEmail, ColName, ColRole, ColPasswordHash, ColActive, ColPasswordUpdatedAt, ColCreatedAt,
}

// DefaultUserCacheTTL bounds how long a read of the user sheet is reused.
// Edits made directly in the sheet become visible after at most this long.
const DefaultUserCacheTTL = 30 * time.Second

// Ensure UserStore implements the interface.
var _ driven.UserStore = (*UserStore)(nil)

type userRow struct {
	number int
	user   domain.User
}

type userSheet struct {
	headers []string
	rows    []userRow
	// last is the sheet row of the final non-empty row returned by the read.
	last   int
	readAt time.Time
}

func (s *userSheet) byID(id string) *userRow {
	for i := range s.rows {
		if s.rows[i].user.ID == id {
			return &s.rows[i]
		}
	}
	return nil
}

// UserStore keeps user accounts in a spreadsheet, one user per row.
type UserStore struct {
	gw            driven.SpreadsheetGateway
	spreadsheetID string
	sheet         string
	ttl           time.Duration
	now           func() time.Time

	mu     sync.Mutex
	cached *userSheet
}

// NewUserStore creates a store over the given sheet.
func NewUserStore(gw driven.SpreadsheetGateway, spreadsheetID, sheet string) *UserStore {
	if sheet == "" {
		sheet = "Users"
	}
	return &UserStore{
		gw:            gw,
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
		ttl:           DefaultUserCacheTTL,
		now:           time.Now,
	}
}

// SetCacheTTL changes how long sheet reads are reused. Zero disables caching.
func (s *UserStore) SetCacheTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttl = ttl
	s.cached = nil
}

// Save stores a user. Creates a row if the ID is new, otherwise writes only
// the columns the caller changed. A column counts as changed when it differs
// from the cached read the caller most likely started from, so an edit made on
// a stale copy does not revert columns written since.
func (s *UserStore) Save(ctx context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var base map[string]string
	if s.cached != nil {
		if r := s.cached.byID(user.ID); r != nil {
			base = encodeUser(r.user)
		}
	}

	// Always work on fresh data before writing.
	s.cached = nil
	sheet, err := s.load(ctx)
	if err != nil {
		return err
	}
	defer func() { s.cached = nil }()

	user.Email = domain.NormalizeEmail(user.Email)
	existing := sheet.byID(user.ID)
	values := encodeUser(user)
	if existing != nil && base != nil && values[ColEmail] == base[ColEmail] {
		user.Email = existing.user.Email
	}
	for _, r := range sheet.rows {
		if r.user.ID != user.ID && r.user.Email == user.Email {
			return fmt.Errorf("%w: user %s", domain.ErrAlreadyExists, user.Email)
		}
	}

	if existing == nil {
		row := make([]string, len(sheet.headers))
		for i, h := range sheet.headers {
			row[i] = values[canonicalHeader(h)]
		}
		_, err := s.gw.Append(ctx, s.spreadsheetID, s.sheet, sheet.last+1, row)
		return err
	}

	current := encodeUser(existing.user)
	cells := make([]domain.CellWrite, 0, len(UserColumns))
	for _, col := range UserColumns {
		v := values[col]
		if base != nil && v == base[col] {
			v = current[col]
		}
		if v == current[col] {
			continue
		}
		idx, ok := domain.FindColumn(sheet.headers, col)
		if !ok {
			continue
		}
		cells = append(cells, domain.CellWrite{
			Range: domain.CellAddress(s.sheet, idx, existing.number),
			Value: v,
		})
	}
	if len(cells) == 0 {
		return nil
	}
	return s.gw.Update(ctx, s.spreadsheetID, cells)
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.find(ctx, func(u domain.User) bool { return u.ID == id })
}

// GetByEmail retrieves a user by normalised email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	return s.find(ctx, func(u domain.User) bool { return u.Email == email })
}

// List returns all users ordered by email.
func (s *UserStore) List(ctx context.Context) ([]domain.User, error) {
	s.mu.Lock()
	sheet, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(sheet.rows))
	for _, r := range sheet.rows {
		users = append(users, r.user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (s *UserStore) find(ctx context.Context, match func(domain.User) bool) (*domain.User, error) {
	s.mu.Lock()
	sheet, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for _, r := range sheet.rows {
		if match(r.user) {
			u := r.user
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

// load returns the cached sheet or reads it, writing missing headers
// (caller must hold lock).
func (s *UserStore) load(ctx context.Context) (*userSheet, error) {
	now := s.now()
	if s.cached != nil && now.Sub(s.cached.readAt) < s.ttl {
		return s.cached, nil
	}

	values, err := s.gw.Read(ctx, s.spreadsheetID, domain.SheetRange(s.sheet))
	if err != nil {
		return nil, fmt.Errorf("reading users: %w", err)
	}

	var headers []string
	if len(values) > 0 {
		headers = append(headers, values[0]...)
	}

	headers, err = s.ensureHeaders(ctx, headers)
	if err != nil {
		return nil, err
	}

	sheet := &userSheet{headers: headers, last: max(len(values), 1), readAt: now}
	for i := 1; i < len(values); i++ {
		user, ok := decodeUser(headers, values[i])
		if !ok {
			continue
		}
		sheet.rows = append(sheet.rows, userRow{number: i + 1, user: user})
	}

	s.cached = sheet
	return sheet, nil
}

// ensureHeaders writes any missing user columns after the existing headers.
func (s *UserStore) ensureHeaders(ctx context.Context, headers []string) ([]string, error) {
	var cells []domain.CellWrite
	for _, col := range UserColumns {
		if _, ok := domain.FindColumn(headers, col); ok {
			continue
		}
		cells = append(cells, domain.CellWrite{
			Range: domain.CellAddress(s.sheet, len(headers), 1),
			Value: col,
		})
		headers = append(headers, col)
	}
	if len(cells) == 0 {
		return headers, nil
	}
	if err := s.gw.Update(ctx, s.spreadsheetID, cells); err != nil {
		return nil, fmt.Errorf("writing user headers: %w", err)
	}
	return headers, nil
}

func canonicalHeader(h string) string {
	for _, col := range UserColumns {
		if strings.EqualFold(strings.TrimSpace(h), col) {
			return col
		}
	}
	return ""
}

func encodeUser(u domain.User) map[string]string {
	return map[string]string{
		ColID:                u.ID,
		ColEmail:             u.Email,
		ColName:              u.Name,
		ColRole:              string(u.Role),
		ColPasswordHash:      u.PasswordHash,
		ColActive:            strings.ToUpper(fmt.Sprint(u.Active)),
		ColPasswordUpdatedAt: encodeTime(u.PasswordUpdatedAt),
		ColCreatedAt:         encodeTime(u.CreatedAt),
	}
}

func decodeUser(headers, row []string) (domain.User, bool) {
	cell := func(col string) string {
		idx, ok := domain.FindColumn(headers, col)
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	u := domain.User{
		ID:                cell(ColID),
		Email:             domain.NormalizeEmail(cell(ColEmail)),
		Name:              cell(ColName),
		Role:              domain.Role(strings.ToLower(cell(ColRole))),
		PasswordHash:      cell(ColPasswordHash),
		Active:            parseBool(cell(ColActive)),
		PasswordUpdatedAt: decodeTime(cell(ColPasswordUpdatedAt)),
		CreatedAt:         decodeTime(cell(ColCreatedAt)),
	}
	if u.ID == "" || u.Email == "" {
		return domain.User{}, false
	}
	return u, true
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "yes", "y", "1", "x":
		return true
	}
	return false
}

// encodeTime writes RFC 3339 text with sub-second precision. The leading apostrophe stops the sheet
// from turning the value into a locale-formatted date.
func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return "'" + t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(v string) time.Time {
	v = strings.TrimPrefix(v, "'")
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
