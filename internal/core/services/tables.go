package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driving"
	"github.com/zmg-ops/zmg-management/internal/logger"
)

// Ensure TableService implements the interface.
var _ driving.TableService = (*TableService)(nil)

// CacheClearer drops cached data derived from a table.
type CacheClearer interface {
	ClearCache()
}

// TableService reads and patches spreadsheet-backed tables.
// Columns are located by header name, so reordering columns in the sheet
// does not break the application.
type TableService struct {
	sheets  driven.SpreadsheetGateway
	schemas []domain.TableSchema
	poCache CacheClearer
}

// NewTableService creates a new table service over the configured tables.
func NewTableService(sheets driven.SpreadsheetGateway, schemas []domain.TableSchema) *TableService {
	return &TableService{
		sheets:  sheets,
		schemas: schemas,
	}
}

// SetPOCache registers the cache to clear whenever the purchase-order table changes.
func (s *TableService) SetPOCache(c CacheClearer) {
	s.poCache = c
}

// Schemas returns the tables the principal may view.
func (s *TableService) Schemas(principal *domain.Principal) []domain.TableSchema {
	visible := make([]domain.TableSchema, 0, len(s.schemas))
	for _, schema := range s.schemas {
		if principal.Can(schema.ViewPermission) {
			visible = append(visible, schema)
		}
	}
	return visible
}

// List returns the rows matching query.
func (s *TableService) List(
	ctx context.Context, principal *domain.Principal, name domain.TableName, query domain.RowQuery,
) (*driving.TablePage, error) {
	if query.Limit < 0 || query.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", domain.ErrInvalidInput)
	}
	schema, err := s.authorize(principal, name, false)
	if err != nil {
		return nil, err
	}
	table, err := ReadTable(ctx, s.sheets, schema)
	if err != nil {
		return nil, err
	}

	// Resolve filter keys to the sheet's own header spelling.
	if len(query.Filters) > 0 {
		resolved := make(map[string]string, len(query.Filters))
		for col, val := range query.Filters {
			idx, ok := domain.FindColumn(table.Headers, col)
			if !ok {
				return nil, fmt.Errorf("%w: %q", domain.ErrColumnNotFound, col)
			}
			resolved[table.Headers[idx]] = val
		}
		query.Filters = resolved
	}

	matched := make([]domain.Row, 0, len(table.Rows))
	for _, row := range table.Rows {
		if query.Matches(row) {
			matched = append(matched, row)
		}
	}

	page := &driving.TablePage{Table: *table, Total: len(matched)}
	page.Rows = paginate(matched, query.Offset, query.Limit)
	return page, nil
}

// Get returns the row whose identifier column equals id.
func (s *TableService) Get(
	ctx context.Context, principal *domain.Principal, name domain.TableName, id string,
) (*domain.Row, error) {
	schema, err := s.authorize(principal, name, false)
	if err != nil {
		return nil, err
	}
	table, err := ReadTable(ctx, s.sheets, schema)
	if err != nil {
		return nil, err
	}
	return findRow(table, id)
}

// UpdateCell patches one cell located by row identifier and header name.
func (s *TableService) UpdateCell(
	ctx context.Context, principal *domain.Principal, name domain.TableName, id, column, value string,
) (*domain.Row, error) {
	return s.UpdateRow(ctx, principal, name, id, map[string]string{column: value})
}

// UpdateRow patches several cells of one row in a single write.
// Every column is validated before anything is written.
func (s *TableService) UpdateRow(
	ctx context.Context, principal *domain.Principal, name domain.TableName, id string, fields map[string]string,
) (*domain.Row, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", domain.ErrInvalidInput)
	}
	schema, err := s.authorize(principal, name, true)
	if err != nil {
		return nil, err
	}
	table, err := ReadTable(ctx, s.sheets, schema)
	if err != nil {
		return nil, err
	}
	row, err := findRow(table, id)
	if err != nil {
		return nil, err
	}

	type patch struct {
		col   int
		value string
	}
	patches := make([]patch, 0, len(fields))
	seen := make(map[int]bool, len(fields))
	for column, value := range fields {
		idx, ok := domain.FindColumn(table.Headers, column)
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrColumnNotFound, column)
		}
		if seen[idx] {
			return nil, fmt.Errorf("%w: column %q given more than once", domain.ErrInvalidInput, table.Headers[idx])
		}
		seen[idx] = true
		if schema.IsReadOnly(table.Headers[idx]) {
			return nil, fmt.Errorf("%w: %q", domain.ErrReadOnlyColumn, table.Headers[idx])
		}
		patches = append(patches, patch{col: idx, value: value})
	}
	sort.Slice(patches, func(i, j int) bool { return patches[i].col < patches[j].col })

	cells := make([]domain.CellWrite, 0, len(patches))
	for _, p := range patches {
		cells = append(cells, domain.CellWrite{
			Range: domain.CellAddress(schema.Sheet, p.col, row.Number),
			Value: p.value,
		})
	}
	if err := s.sheets.Update(ctx, schema.SpreadsheetID, cells); err != nil {
		return nil, fmt.Errorf("update %s row %d: %w", schema.Name, row.Number, err)
	}

	for _, p := range patches {
		row.Values[table.Headers[p.col]] = p.value
	}
	logger.Debug("tables: %s updated %d cell(s) of %s row %q", principal.User.Email, len(cells), schema.Name, id)
	s.changed(schema)
	return row, nil
}

// Append adds a new row. The identifier is required and must be unique.
func (s *TableService) Append(
	ctx context.Context, principal *domain.Principal, name domain.TableName, fields map[string]string,
) (*domain.Row, error) {
	schema, err := s.authorize(principal, name, true)
	if err != nil {
		return nil, err
	}
	table, err := ReadTable(ctx, s.sheets, schema)
	if err != nil {
		return nil, err
	}
	idIdx, ok := domain.FindColumn(table.Headers, schema.IDColumn)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrColumnNotFound, schema.IDColumn)
	}

	values := make([]string, len(table.Headers))
	seen := make(map[int]bool, len(fields))
	for column, value := range fields {
		idx, ok := domain.FindColumn(table.Headers, column)
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrColumnNotFound, column)
		}
		if seen[idx] {
			return nil, fmt.Errorf("%w: column %q given more than once", domain.ErrInvalidInput, table.Headers[idx])
		}
		seen[idx] = true
		values[idx] = value
	}

	id := strings.TrimSpace(values[idIdx])
	if id == "" {
		return nil, fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, table.Headers[idIdx])
	}
	if _, err := findRow(table, id); err == nil {
		return nil, fmt.Errorf("%w: %s %q", domain.ErrDuplicateRow, table.Headers[idIdx], id)
	}

	number, err := s.sheets.Append(ctx, schema.SpreadsheetID, schema.Sheet, lastRowNumber(table)+1, values)
	if err != nil {
		return nil, fmt.Errorf("append to %s: %w", schema.Name, err)
	}

	row := &domain.Row{Number: number, Values: make(map[string]string, len(values))}
	for i, h := range table.Headers {
		if h != "" {
			row.Values[h] = values[i]
		}
	}
	logger.Debug("tables: %s appended %s row %q", principal.User.Email, schema.Name, id)
	s.changed(schema)
	return row, nil
}

func (s *TableService) authorize(
	principal *domain.Principal, name domain.TableName, write bool,
) (domain.TableSchema, error) {
	schema, ok := s.schema(name)
	if !ok {
		return domain.TableSchema{}, fmt.Errorf("%w: %q", domain.ErrUnknownTable, name)
	}
	if principal == nil {
		return domain.TableSchema{}, domain.ErrUnauthenticated
	}
	perm := schema.ViewPermission
	if write {
		perm = schema.EditPermission
	}
	if !principal.Can(perm) {
		return domain.TableSchema{}, fmt.Errorf("%w: %s requires %s", domain.ErrForbidden, name, perm)
	}
	return schema, nil
}

func (s *TableService) schema(name domain.TableName) (domain.TableSchema, bool) {
	for _, schema := range s.schemas {
		if schema.Name == name {
			return schema, true
		}
	}
	return domain.TableSchema{}, false
}

func (s *TableService) changed(schema domain.TableSchema) {
	if schema.Name == domain.TablePOStatus && s.poCache != nil {
		s.poCache.ClearCache()
	}
}

// ReadTable reads a whole sheet. Row 1 holds the headers; blank rows are skipped.
// Columns with a blank header are ignored and the first of duplicate headers wins.
func ReadTable(ctx context.Context, sheets driven.SpreadsheetGateway, schema domain.TableSchema) (*domain.Table, error) {
	values, err := sheets.Read(ctx, schema.SpreadsheetID, domain.SheetRange(schema.Sheet))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", schema.Name, err)
	}

	table := &domain.Table{Schema: schema, Headers: []string{}, Rows: []domain.Row{}}
	if len(values) == 0 {
		return table, nil
	}

	table.Headers = make([]string, len(values[0]))
	for i, h := range values[0] {
		table.Headers[i] = strings.TrimSpace(h)
	}

	for i, cells := range values[1:] {
		if blankRow(cells) {
			continue
		}
		row := domain.Row{Number: i + 2, Values: make(map[string]string, len(table.Headers))}
		for col, h := range table.Headers {
			if h == "" {
				continue
			}
			if _, dup := row.Values[h]; dup {
				continue
			}
			if col < len(cells) {
				row.Values[h] = cells[col]
			} else {
				row.Values[h] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func findRow(table *domain.Table, id string) (*domain.Row, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: row id required", domain.ErrInvalidInput)
	}
	if _, ok := domain.FindColumn(table.Headers, table.Schema.IDColumn); !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrColumnNotFound, table.Schema.IDColumn)
	}
	for i := range table.Rows {
		if strings.EqualFold(table.Rows[i].ID(table.Schema.IDColumn), id) {
			row := table.Rows[i]
			return &row, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %q", domain.ErrNotFound, table.Schema.IDColumn, id)
}

func lastRowNumber(table *domain.Table) int {
	if n := len(table.Rows); n > 0 {
		return table.Rows[n-1].Number
	}
	return 1
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func paginate(rows []domain.Row, offset, limit int) []domain.Row {
	if offset >= len(rows) {
		return []domain.Row{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
