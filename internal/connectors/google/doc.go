// Package google provides shared infrastructure for the Google API adapters.
//
// This package contains common utilities used by the sheets, drive and
// Apps Script adapters including:
//   - Service factories for creating authenticated Google API clients
//   - Error handling for common Google API errors (401, 403, 404, 429)
//   - Rate limiting to respect Google API quotas
//
// # Usage
//
// The server authenticates as a service account. Each adapter builds its
// client from the shared credentials:
//
//	opt, err := google.CredentialsOption(ctx, "service-account.json", google.SheetsScope)
//	svc, err := google.NewSheetsService(ctx, opt)
//
// # OAuth2 Scopes
//
//   - https://www.googleapis.com/auth/spreadsheets
//   - https://www.googleapis.com/auth/drive
//
// The spreadsheets and Drive folders must be shared with the service
// account's email address.
package google
