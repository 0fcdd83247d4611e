// Package domain defines the core business entities for the ZMG management system.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - User, Session, VerificationCode: identity and authentication state
//   - Role, Permission: role-based access control
//   - TableSchema, Row, Table: spreadsheet-backed data views
//   - POSummary: aggregated purchase-order counts
//   - DriveFile, FolderSpec: files stored in Google Drive folders
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
