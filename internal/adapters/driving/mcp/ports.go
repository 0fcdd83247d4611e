package mcp

import (
	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Tables reads spreadsheet-backed tables.
	Tables driving.TableService

	// PurchaseOrders provides the cached PO summary. Optional.
	PurchaseOrders driving.PurchaseOrderService

	// Principal is the identity every tool call acts as.
	Principal *domain.Principal
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Tables == nil {
		return ErrMissingTableService
	}
	if p.Principal == nil {
		return ErrMissingPrincipal
	}
	return nil
}

// ServicePrincipal builds the identity of the MCP server from a role.
func ServicePrincipal(role domain.Role, perms []domain.Permission) *domain.Principal {
	return &domain.Principal{
		User: domain.User{
			ID:     "mcp",
			Email:  "mcp@localhost",
			Name:   "MCP service",
			Role:   role,
			Active: true,
		},
		Permissions: perms,
	}
}
