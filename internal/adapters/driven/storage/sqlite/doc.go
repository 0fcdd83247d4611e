// Package sqlite provides a SQLite-based implementation of the session and
// verification code stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements both store interfaces
// through a single database connection:
//
//   - SessionStore: browser sessions keyed by token hash
//   - CodeStore: pending email sign-in codes
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Timestamps are stored as Unix milliseconds in UTC.
//
// # Data Location
//
// By default, the database is stored at ~/.zmg/data/zmg.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
