package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/zmg-ops/zmg-management/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
)

// Store is a SQLite-based storage that provides access to the session and
// verification code stores through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.zmg/data/zmg.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".zmg", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "zmg.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SessionStore returns a SessionStore interface backed by this store.
func (s *Store) SessionStore() driven.SessionStore {
	return &sessionStore{store: s}
}

// CodeStore returns a CodeStore interface backed by this store.
func (s *Store) CodeStore() driven.CodeStore {
	return &codeStore{store: s}
}

// migrate runs all pending migrations. Each migration records its own version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	return v, err
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// ==================== Session Store ====================

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// Save stores or replaces a session.
func (s *sessionStore) Save(ctx context.Context, session domain.Session) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, email, role, ip, user_agent, created_at, expires_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			email = excluded.email,
			role = excluded.role,
			ip = excluded.ip,
			user_agent = excluded.user_agent,
			expires_at = excluded.expires_at,
			last_seen_at = excluded.last_seen_at
	`, session.ID, session.UserID, session.Email, string(session.Role), session.IP, session.UserAgent,
		toMillis(session.CreatedAt), toMillis(session.ExpiresAt), toMillis(session.LastSeenAt))
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (s *sessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_id, email, role, ip, user_agent, created_at, expires_at, last_seen_at
		FROM sessions WHERE id = ?
	`, id)

	var session domain.Session
	var role string
	var createdAt, expiresAt, lastSeenAt int64
	if err := row.Scan(&session.ID, &session.UserID, &session.Email, &role, &session.IP,
		&session.UserAgent, &createdAt, &expiresAt, &lastSeenAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	session.Role = domain.Role(role)
	session.CreatedAt = fromMillis(createdAt)
	session.ExpiresAt = fromMillis(expiresAt)
	session.LastSeenAt = fromMillis(lastSeenAt)
	return &session, nil
}

// Touch updates the last-seen time of a session.
func (s *sessionStore) Touch(ctx context.Context, id string, at time.Time) error {
	res, err := s.store.db.ExecContext(ctx, "UPDATE sessions SET last_seen_at = ? WHERE id = ?", toMillis(at), id)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a session.
func (s *sessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteByUser removes every session of a user.
func (s *sessionStore) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("deleting user sessions: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions whose expiry is not after now.
func (s *sessionStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting expired sessions: %w", err)
	}
	return int(n), nil
}

// ==================== Code Store ====================

// codeStore implements driven.CodeStore.
type codeStore struct {
	store *Store
}

var _ driven.CodeStore = (*codeStore)(nil)

// Save stores a code, replacing any pending code for the same email.
func (s *codeStore) Save(ctx context.Context, code domain.VerificationCode) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO verification_codes (email, code_hash, attempts, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			code_hash = excluded.code_hash,
			attempts = excluded.attempts,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, code.Email, code.CodeHash, code.Attempts, toMillis(code.CreatedAt), toMillis(code.ExpiresAt))
	if err != nil {
		return fmt.Errorf("saving verification code: %w", err)
	}
	return nil
}

// Get retrieves the pending code for an email.
func (s *codeStore) Get(ctx context.Context, email string) (*domain.VerificationCode, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT email, code_hash, attempts, created_at, expires_at
		FROM verification_codes WHERE email = ?
	`, email)

	var code domain.VerificationCode
	var createdAt, expiresAt int64
	if err := row.Scan(&code.Email, &code.CodeHash, &code.Attempts, &createdAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning verification code: %w", err)
	}

	code.CreatedAt = fromMillis(createdAt)
	code.ExpiresAt = fromMillis(expiresAt)
	return &code, nil
}

// IncrementAttempts records a failed guess and returns the new attempt count.
func (s *codeStore) IncrementAttempts(ctx context.Context, email string) (int, error) {
	var attempts int
	err := s.store.db.QueryRowContext(ctx,
		"UPDATE verification_codes SET attempts = attempts + 1 WHERE email = ? RETURNING attempts",
		email).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("incrementing attempts: %w", err)
	}
	return attempts, nil
}

// Delete removes the pending code for an email.
func (s *codeStore) Delete(ctx context.Context, email string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM verification_codes WHERE email = ?", email); err != nil {
		return fmt.Errorf("deleting verification code: %w", err)
	}
	return nil
}

// DeleteExpired removes codes whose expiry is not after now.
func (s *codeStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM verification_codes WHERE expires_at <= ?", toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("deleting expired codes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting expired codes: %w", err)
	}
	return int(n), nil
}
