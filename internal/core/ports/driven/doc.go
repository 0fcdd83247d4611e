// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SpreadsheetGateway: Google Sheets cell reads and writes
//   - UserStore: user accounts (a sheet in production)
//   - SessionStore, CodeStore: authentication state (SQLite in production)
//   - TokenIssuer: signed password setup tokens
//   - AttemptLimiter: throttling keyed by email and client IP
//   - ConfigStore: application configuration
//   - FileGateway: Drive folder access (Apps Script proxy or Drive API)
//   - Mailer: verification code and setup link delivery
//
// The composition root always supplies a FileGateway and a Mailer; when
// no backend is configured they fail with ErrNotImplemented or only log.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
