package domain

import "strings"

// TableName identifies a spreadsheet-backed table.
type TableName string

// Known tables.
const (
	TableDailyPlan     TableName = "daily_plan"
	TableHuaweiRollout TableName = "huawei_rollout"
	TablePOStatus      TableName = "po_status"
)

// TableSchema describes where a table lives and who may use it.
type TableSchema struct {
	// Name is the API identifier of the table.
	Name TableName `json:"name"`
	// Title is the human-readable name.
	Title string `json:"title"`
	// SpreadsheetID is the Google Sheets document holding the table.
	SpreadsheetID string `json:"-"`
	// Sheet is the tab name inside the spreadsheet.
	Sheet string `json:"sheet"`
	// IDColumn is the header of the row identifier column.
	IDColumn string `json:"id_column"`
	// ViewPermission is required to read rows.
	ViewPermission Permission `json:"view_permission"`
	// EditPermission is required to modify or append rows.
	EditPermission Permission `json:"edit_permission"`
	// ReadOnlyColumns cannot be patched in addition to IDColumn.
	ReadOnlyColumns []string `json:"read_only_columns,omitempty"`
}

// IsReadOnly reports whether a column may not be patched.
// The identifier column is always read-only.
func (s TableSchema) IsReadOnly(column string) bool {
	if sameHeader(column, s.IDColumn) {
		return true
	}
	for _, c := range s.ReadOnlyColumns {
		if sameHeader(column, c) {
			return true
		}
	}
	return false
}

// DefaultTableSchemas returns the built-in table definitions without spreadsheet IDs.
func DefaultTableSchemas() []TableSchema {
	return []TableSchema{
		{
			Name:           TableDailyPlan,
			Title:          "Daily Plan",
			Sheet:          "Daily Plan",
			IDColumn:       "Plan ID",
			ViewPermission: PermViewDailyPlan,
			EditPermission: PermEditDailyPlan,
		},
		{
			Name:           TableHuaweiRollout,
			Title:          "Huawei Rollout",
			Sheet:          "Huawei Rollout",
			IDColumn:       "DUID",
			ViewPermission: PermViewHuawei,
			EditPermission: PermEditHuawei,
		},
		{
			Name:           TablePOStatus,
			Title:          "PO Status",
			Sheet:          "PO Status",
			IDColumn:       "PO Number",
			ViewPermission: PermViewPO,
			EditPermission: PermEditPO,
		},
	}
}

// Row is one data row of a table.
type Row struct {
	// Number is the 1-based row number inside the sheet (the header is row 1).
	Number int `json:"row"`
	// Values maps header names to cell values.
	Values map[string]string `json:"values"`
}

// ID returns the value of the identifier column.
func (r Row) ID(idColumn string) string {
	for k, v := range r.Values {
		if sameHeader(k, idColumn) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Table is a parsed sheet: its header row and data rows.
type Table struct {
	Schema  TableSchema `json:"schema"`
	Headers []string    `json:"headers"`
	Rows    []Row       `json:"rows"`
}

// RowQuery narrows the rows returned by a list operation.
type RowQuery struct {
	// Search is a case-insensitive substring matched against every cell.
	Search string
	// Filters are case-insensitive exact matches keyed by header name.
	Filters map[string]string
	// Limit caps the number of rows returned. Zero means no limit.
	Limit int
	// Offset skips rows after filtering.
	Offset int
}

// Matches reports whether the row satisfies the search and filters.
// Filter keys must already be resolved to header names.
func (q RowQuery) Matches(row Row) bool {
	for col, want := range q.Filters {
		if !strings.EqualFold(strings.TrimSpace(row.Values[col]), strings.TrimSpace(want)) {
			return false
		}
	}
	if q.Search == "" {
		return true
	}
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	for _, v := range row.Values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

// FindColumn returns the index of the header matching name.
// Matching ignores case and surrounding whitespace.
func FindColumn(headers []string, name string) (int, bool) {
	for i, h := range headers {
		if h != "" && sameHeader(h, name) {
			return i, true
		}
	}
	return -1, false
}

func sameHeader(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
