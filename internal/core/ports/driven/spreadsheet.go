package driven

import (
	"context"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

// SpreadsheetGateway reads and writes cell values of Google Sheets documents.
// Ranges use A1 notation, e.g. 'Daily Plan' or 'Daily Plan'!C12.
type SpreadsheetGateway interface {
	// Read returns the formatted values of a range as strings.
	// Trailing empty cells and rows may be omitted, as the Sheets API does.
	Read(ctx context.Context, spreadsheetID, rng string) ([][]string, error)

	// Update writes the given cells. Values are interpreted as if typed by a user.
	Update(ctx context.Context, spreadsheetID string, cells []domain.CellWrite) error

	// Append inserts values as a new row, anchored at the 1-based row that
	// follows the last data row. Returns the sheet row actually written.
	Append(ctx context.Context, spreadsheetID, sheet string, row int, values []string) (int, error)
}
