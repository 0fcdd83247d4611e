package driving

import (
	"context"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

// TablePage is a filtered, paginated view of a table.
type TablePage struct {
	domain.Table
	// Total is the number of matching rows before pagination.
	Total int `json:"total"`
}

// TableService exposes the spreadsheet-backed tables.
// Every method checks the principal's permission for the table.
type TableService interface {
	// Schemas returns the tables the principal may view.
	Schemas(principal *domain.Principal) []domain.TableSchema

	// List returns the rows matching query.
	List(ctx context.Context, principal *domain.Principal, table domain.TableName, query domain.RowQuery) (*TablePage, error)

	// Get returns the row whose identifier column equals id.
	Get(ctx context.Context, principal *domain.Principal, table domain.TableName, id string) (*domain.Row, error)

	// UpdateCell patches one cell located by row identifier and header name.
	UpdateCell(
		ctx context.Context, principal *domain.Principal, table domain.TableName, id, column, value string,
	) (*domain.Row, error)

	// UpdateRow patches several cells of one row in a single write.
	UpdateRow(
		ctx context.Context, principal *domain.Principal, table domain.TableName, id string, fields map[string]string,
	) (*domain.Row, error)

	// Append adds a new row.
	Append(
		ctx context.Context, principal *domain.Principal, table domain.TableName, fields map[string]string,
	) (*domain.Row, error)
}
