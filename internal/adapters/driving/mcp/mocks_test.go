package mcp

import (
	"context"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driving"
)

// mockTableService is a mock implementation of driving.TableService.
type mockTableService struct {
	schemas   []domain.TableSchema
	page      *driving.TablePage
	row       *domain.Row
	err       error
	lastQuery domain.RowQuery
	lastTable domain.TableName
	lastID    string
}

func (m *mockTableService) Schemas(_ *domain.Principal) []domain.TableSchema {
	return m.schemas
}

func (m *mockTableService) List(
	_ context.Context, _ *domain.Principal, table domain.TableName, query domain.RowQuery,
) (*driving.TablePage, error) {
	m.lastTable = table
	m.lastQuery = query
	return m.page, m.err
}

func (m *mockTableService) Get(
	_ context.Context, _ *domain.Principal, table domain.TableName, id string,
) (*domain.Row, error) {
	m.lastTable = table
	m.lastID = id
	return m.row, m.err
}

func (m *mockTableService) UpdateCell(
	_ context.Context, _ *domain.Principal, _ domain.TableName, _, _, _ string,
) (*domain.Row, error) {
	return nil, domain.ErrForbidden
}

func (m *mockTableService) UpdateRow(
	_ context.Context, _ *domain.Principal, _ domain.TableName, _ string, _ map[string]string,
) (*domain.Row, error) {
	return nil, domain.ErrForbidden
}

func (m *mockTableService) Append(
	_ context.Context, _ *domain.Principal, _ domain.TableName, _ map[string]string,
) (*domain.Row, error) {
	return nil, domain.ErrForbidden
}

// mockPOService is a mock implementation of driving.PurchaseOrderService.
type mockPOService struct {
	summary *domain.POSummary
	err     error
	cleared int
}

func (m *mockPOService) Summary(_ context.Context) (*domain.POSummary, error) {
	return m.summary, m.err
}

func (m *mockPOService) ClearCache() {
	m.cleared++
}

func viewer() *domain.Principal {
	return ServicePrincipal(domain.RoleViewer, domain.DefaultRolePermissions().For(domain.RoleViewer))
}
