// Package sheets implements the spreadsheet gateway on the Google Sheets API
// and a user store kept in a sheet of its own.
//
// All calls pass through a shared rate limiter. Values are read formatted and
// written with USER_ENTERED semantics, so the sheet applies the same parsing
// it would for a person typing into the cell.
package sheets
