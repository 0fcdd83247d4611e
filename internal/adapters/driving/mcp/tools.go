package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 500
)

// ListTablesInput is the input schema for the list_tables tool.
type ListTablesInput struct{}

// ListTablesOutput is the output schema for the list_tables tool.
type ListTablesOutput struct {
	Tables []TableOutput `json:"tables"`
}

// TableOutput describes one table visible to the server.
type TableOutput struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	IDColumn string `json:"id_column"`
}

// QueryTableInput is the input schema for the query_table tool.
type QueryTableInput struct {
	Table   string            `json:"table" jsonschema:"table name, e.g. daily_plan, huawei_rollout or po_status"`
	Search  string            `json:"search,omitempty" jsonschema:"case-insensitive text matched against every cell"`
	Filters map[string]string `json:"filters,omitempty" jsonschema:"exact matches keyed by column header"`
	Limit   int               `json:"limit,omitempty" jsonschema:"maximum number of rows to return (default 50)"`
	Offset  int               `json:"offset,omitempty" jsonschema:"number of matching rows to skip"`
}

// QueryTableOutput is the output schema for the query_table tool.
type QueryTableOutput struct {
	Headers []string            `json:"headers"`
	Rows    []map[string]string `json:"rows"`
	Count   int                 `json:"count"`
	Total   int                 `json:"total"`
}

// POSummaryInput is the input schema for the po_summary tool.
type POSummaryInput struct{}

// POSummaryOutput is the output schema for the po_summary tool.
type POSummaryOutput struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
	ByProject   map[string]int `json:"by_project"`
	GeneratedAt string         `json:"generated_at"`
	FromCache   bool           `json:"from_cache"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_tables",
		Description: "List the spreadsheet tables that can be queried",
	}, s.handleListTables)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_table",
		Description: "Read rows from a spreadsheet table with optional search and column filters",
	}, s.handleQueryTable)

	if s.ports.PurchaseOrders != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "po_summary",
			Description: "Purchase-order counts by status and project",
		}, s.handlePOSummary)
	}
}

// handleListTables handles the list_tables tool invocation.
func (s *Server) handleListTables(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListTablesInput,
) (*mcp.CallToolResult, ListTablesOutput, error) {
	schemas := s.ports.Tables.Schemas(s.ports.Principal)
	output := ListTablesOutput{Tables: make([]TableOutput, len(schemas))}
	for i, schema := range schemas {
		output.Tables[i] = TableOutput{
			Name:     string(schema.Name),
			Title:    schema.Title,
			IDColumn: schema.IDColumn,
		}
	}
	return nil, output, nil
}

// handleQueryTable handles the query_table tool invocation.
func (s *Server) handleQueryTable(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryTableInput,
) (*mcp.CallToolResult, QueryTableOutput, error) {
	if input.Table == "" {
		return nil, QueryTableOutput{}, errors.New("table is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	query := domain.RowQuery{
		Search:  input.Search,
		Filters: input.Filters,
		Limit:   limit,
		Offset:  input.Offset,
	}
	page, err := s.ports.Tables.List(ctx, s.ports.Principal, domain.TableName(input.Table), query)
	if err != nil {
		return nil, QueryTableOutput{}, err
	}

	headers := make([]string, 0, len(page.Headers))
	for _, h := range page.Headers {
		if h != "" {
			headers = append(headers, h)
		}
	}
	output := QueryTableOutput{
		Headers: headers,
		Rows:    make([]map[string]string, len(page.Rows)),
		Count:   len(page.Rows),
		Total:   page.Total,
	}
	for i, row := range page.Rows {
		output.Rows[i] = row.Values
	}
	return nil, output, nil
}

// handlePOSummary handles the po_summary tool invocation.
func (s *Server) handlePOSummary(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ POSummaryInput,
) (*mcp.CallToolResult, POSummaryOutput, error) {
	if !s.ports.Principal.Can(domain.PermViewPO) {
		return nil, POSummaryOutput{}, domain.ErrForbidden
	}
	summary, err := s.ports.PurchaseOrders.Summary(ctx)
	if err != nil {
		return nil, POSummaryOutput{}, err
	}
	return nil, POSummaryOutput{
		Total:       summary.Total,
		ByStatus:    summary.ByStatus,
		ByProject:   summary.ByProject,
		GeneratedAt: summary.GeneratedAt.Format(time.RFC3339),
		FromCache:   summary.FromCache,
	}, nil
}
