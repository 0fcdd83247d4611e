// Package mcp provides an MCP (Model Context Protocol) server adapter for ZMG.
// It gives AI assistants read-only access to the spreadsheet tables and the
// purchase-order summary, acting with the permissions of a service role.
package mcp

import "errors"

var (
	// ErrMissingTableService is returned when the table service is not provided.
	ErrMissingTableService = errors.New("mcp: table service is required")

	// ErrMissingPrincipal is returned when no service principal is provided.
	ErrMissingPrincipal = errors.New("mcp: service principal is required")

	// ErrExposedWithoutToken is returned when HTTP would listen beyond
	// loopback with no bearer token configured.
	ErrExposedWithoutToken = errors.New("mcp: a token is required to listen on a non-loopback host")
)
