package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for ZMG resources.
	uriScheme = "zmg://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing tables.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "tables",
		Name:        "tables",
		Description: "Spreadsheet tables visible to the server",
		MIMEType:    "application/json",
	}, s.handleTablesResource)

	// Template for a single row.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "tables/{table}/rows/{id}",
		Name:        "table-row",
		Description: "A single table row located by its identifier column",
		MIMEType:    "application/json",
	}, s.handleRowResource)
}

// handleTablesResource returns the visible table schemas.
func (s *Server) handleTablesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	schemas := s.ports.Tables.Schemas(s.ports.Principal)
	return jsonResult(req.Params.URI, schemas)
}

// handleRowResource returns one row of a table.
func (s *Server) handleRowResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	table, id := extractRowRef(req.Params.URI)
	if table == "" || id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	row, err := s.ports.Tables.Get(ctx, s.ports.Principal, domain.TableName(table), id)
	if err != nil {
		return nil, fmt.Errorf("getting row: %w", err)
	}
	return jsonResult(req.Params.URI, row)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractRowRef extracts the table and row id from a URI like zmg://tables/{table}/rows/{id}.
// The id is path-unescaped so DUIDs containing slashes can be addressed.
func extractRowRef(uri string) (table, id string) {
	const prefix = uriScheme + "tables/"

	if !strings.HasPrefix(uri, prefix) {
		return "", ""
	}
	rest := strings.TrimPrefix(uri, prefix)

	table, rawID, ok := strings.Cut(rest, "/rows/")
	if !ok || table == "" || strings.Contains(table, "/") {
		return "", ""
	}
	id, err := url.PathUnescape(rawID)
	if err != nil {
		return "", ""
	}
	return table, id
}
