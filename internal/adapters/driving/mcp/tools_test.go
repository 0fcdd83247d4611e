package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driving"
)

func TestServer_handleListTables(t *testing.T) {
	tables := &mockTableService{schemas: domain.DefaultTableSchemas()[:2]}
	server, err := NewServer(&Ports{Tables: tables, Principal: viewer()})
	require.NoError(t, err)

	_, output, err := server.handleListTables(context.Background(), nil, ListTablesInput{})
	require.NoError(t, err)
	require.Len(t, output.Tables, 2)
	assert.Equal(t, "daily_plan", output.Tables[0].Name)
	assert.Equal(t, "DUID", output.Tables[1].IDColumn)
}

func TestServer_handleQueryTable(t *testing.T) {
	ctx := context.Background()

	t.Run("returns rows", func(t *testing.T) {
		tables := &mockTableService{page: &driving.TablePage{
			Table: domain.Table{
				Headers: []string{"DUID", "", "Status"},
				Rows: []domain.Row{
					{Number: 2, Values: map[string]string{"DUID": "D-1", "Status": "Done"}},
				},
			},
			Total: 7,
		}}
		server, err := NewServer(&Ports{Tables: tables, Principal: viewer()})
		require.NoError(t, err)

		_, output, err := server.handleQueryTable(ctx, nil, QueryTableInput{
			Table:   "huawei_rollout",
			Search:  "d-1",
			Filters: map[string]string{"Status": "Done"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"DUID", "Status"}, output.Headers)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, 7, output.Total)
		assert.Equal(t, "D-1", output.Rows[0]["DUID"])

		assert.Equal(t, domain.TableHuaweiRollout, tables.lastTable)
		assert.Equal(t, defaultQueryLimit, tables.lastQuery.Limit)
		assert.Equal(t, "d-1", tables.lastQuery.Search)
	})

	t.Run("limit is capped", func(t *testing.T) {
		tables := &mockTableService{page: &driving.TablePage{}}
		server, err := NewServer(&Ports{Tables: tables, Principal: viewer()})
		require.NoError(t, err)

		_, _, err = server.handleQueryTable(ctx, nil, QueryTableInput{Table: "po_status", Limit: 10000})
		require.NoError(t, err)
		assert.Equal(t, maxQueryLimit, tables.lastQuery.Limit)
	})

	t.Run("table is required", func(t *testing.T) {
		server, err := NewServer(&Ports{Tables: &mockTableService{}, Principal: viewer()})
		require.NoError(t, err)

		_, _, err = server.handleQueryTable(ctx, nil, QueryTableInput{})
		assert.Error(t, err)
	})

	t.Run("service error is returned", func(t *testing.T) {
		tables := &mockTableService{err: domain.ErrUnknownTable}
		server, err := NewServer(&Ports{Tables: tables, Principal: viewer()})
		require.NoError(t, err)

		_, _, err = server.handleQueryTable(ctx, nil, QueryTableInput{Table: "payroll"})
		assert.ErrorIs(t, err, domain.ErrUnknownTable)
	})
}

func TestServer_handlePOSummary(t *testing.T) {
	ctx := context.Background()
	generated := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

	t.Run("returns summary", func(t *testing.T) {
		po := &mockPOService{summary: &domain.POSummary{
			Total:       3,
			ByStatus:    map[string]int{"Open": 2, "Closed": 1},
			ByProject:   map[string]int{"Alpha": 3},
			GeneratedAt: generated,
			FromCache:   true,
		}}
		server, err := NewServer(&Ports{Tables: &mockTableService{}, PurchaseOrders: po, Principal: viewer()})
		require.NoError(t, err)

		_, output, err := server.handlePOSummary(ctx, nil, POSummaryInput{})
		require.NoError(t, err)
		assert.Equal(t, 3, output.Total)
		assert.Equal(t, 2, output.ByStatus["Open"])
		assert.Equal(t, "2024-05-01T08:30:00Z", output.GeneratedAt)
		assert.True(t, output.FromCache)
	})

	t.Run("requires po:view", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Tables:         &mockTableService{},
			PurchaseOrders: &mockPOService{},
			Principal:      ServicePrincipal(domain.RoleViewer, nil),
		})
		require.NoError(t, err)

		_, _, err = server.handlePOSummary(ctx, nil, POSummaryInput{})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("service error", func(t *testing.T) {
		po := &mockPOService{err: errors.New("sheets unavailable")}
		server, err := NewServer(&Ports{Tables: &mockTableService{}, PurchaseOrders: po, Principal: viewer()})
		require.NoError(t, err)

		_, _, err = server.handlePOSummary(ctx, nil, POSummaryInput{})
		assert.Error(t, err)
	})
}
