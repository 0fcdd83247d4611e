package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not configured or not available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrRateLimited indicates too many attempts for a key or an upstream API limit.
	ErrRateLimited = errors.New("rate limited")

	// Authentication Errors.

	// ErrUnauthenticated indicates the caller has no valid session.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden indicates the caller lacks the permission for an operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials indicates an email/password pair was rejected.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInactiveUser indicates the user account has been deactivated.
	ErrInactiveUser = errors.New("user is inactive")

	// ErrPasswordNotSet indicates the user has not completed password setup.
	ErrPasswordNotSet = errors.New("password not set")

	// ErrWeakPassword indicates a password does not satisfy the policy.
	ErrWeakPassword = errors.New("password must be at least 8 characters and contain a letter and a digit")

	// ErrInvalidCode indicates a verification code is missing or wrong.
	ErrInvalidCode = errors.New("invalid verification code")

	// ErrCodeExpired indicates a verification code has expired.
	ErrCodeExpired = errors.New("verification code expired")

	// ErrTooManyAttempts indicates a verification code was guessed too often.
	ErrTooManyAttempts = errors.New("too many verification attempts")

	// ErrInvalidToken indicates a setup token failed verification.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrTokenUsed indicates a setup token was already redeemed.
	ErrTokenUsed = errors.New("token already used")

	// Table Errors.

	// ErrUnknownTable indicates the requested table is not configured.
	ErrUnknownTable = errors.New("unknown table")

	// ErrColumnNotFound indicates a header name is not present in the sheet.
	ErrColumnNotFound = errors.New("column not found")

	// ErrReadOnlyColumn indicates a column cannot be modified.
	ErrReadOnlyColumn = errors.New("column is read-only")

	// ErrDuplicateRow indicates a row with the same identifier already exists.
	ErrDuplicateRow = errors.New("row already exists")

	// File Errors.

	// ErrUnknownFolder indicates the requested folder is not configured.
	ErrUnknownFolder = errors.New("unknown folder")

	// ErrFileTooLarge indicates an upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("file too large")
)
