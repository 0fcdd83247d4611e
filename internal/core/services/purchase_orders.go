package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driven"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driving"
	"github.com/zmg-ops/zmg-management/internal/logger"
)

// refreshTimeout bounds a summary read shared by several callers.
const refreshTimeout = 30 * time.Second

// Ensure PurchaseOrderService implements the interface.
var _ driving.PurchaseOrderService = (*PurchaseOrderService)(nil)

// PurchaseOrderService counts purchase orders by status and project.
// The summary is cached for a fixed TTL; concurrent misses share one sheet read.
type PurchaseOrderService struct {
	sheets driven.SpreadsheetGateway
	schema domain.TableSchema
	cfg    domain.CacheSettings
	now    func() time.Time

	group singleflight.Group

	mu         sync.Mutex
	cached     *domain.POSummary
	generation uint64
}

// NewPurchaseOrderService creates a new purchase-order service.
func NewPurchaseOrderService(
	sheets driven.SpreadsheetGateway, schema domain.TableSchema, cfg domain.CacheSettings,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		sheets: sheets,
		schema: schema,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Summary returns the counts, served from cache while it is fresh.
func (s *PurchaseOrderService) Summary(ctx context.Context) (*domain.POSummary, error) {
	s.mu.Lock()
	if s.cached != nil && s.now().Before(s.cached.CachedUntil) {
		out := copySummary(s.cached)
		s.mu.Unlock()
		out.FromCache = true
		return out, nil
	}
	gen := s.generation
	s.mu.Unlock()

	// The shared read must outlive the caller that started it, so it runs on
	// a detached context and every caller waits on its own.
	ch := s.group.DoChan("summary", func() (any, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		summary, err := s.compute(readCtx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		// A clear that raced with this read wins; the result is still returned.
		if s.generation == gen {
			s.cached = summary
		}
		s.mu.Unlock()
		return summary, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return copySummary(res.Val.(*domain.POSummary)), nil
	}
}

// ClearCache discards the cached summary.
func (s *PurchaseOrderService) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
	s.generation++
	logger.Debug("po: summary cache cleared")
}

func (s *PurchaseOrderService) compute(ctx context.Context) (*domain.POSummary, error) {
	table, err := ReadTable(ctx, s.sheets, s.schema)
	if err != nil {
		return nil, err
	}

	statusCol, ok := domain.FindColumn(table.Headers, s.cfg.StatusColumn)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrColumnNotFound, s.cfg.StatusColumn)
	}
	projectCol, hasProject := domain.FindColumn(table.Headers, s.cfg.ProjectColumn)

	byStatus := domain.NewCounter()
	byProject := domain.NewCounter()
	for _, row := range table.Rows {
		byStatus.Add(row.Values[table.Headers[statusCol]])
		if hasProject {
			byProject.Add(row.Values[table.Headers[projectCol]])
		}
	}

	now := s.now()
	summary := &domain.POSummary{
		Total:       len(table.Rows),
		ByStatus:    byStatus.Map(),
		ByProject:   byProject.Map(),
		GeneratedAt: now,
		CachedUntil: now.Add(s.cfg.POSummaryTTL),
	}
	logger.Debug("po: summary computed over %d rows", summary.Total)
	return summary, nil
}

func copySummary(in *domain.POSummary) *domain.POSummary {
	out := *in
	out.ByStatus = make(map[string]int, len(in.ByStatus))
	for k, v := range in.ByStatus {
		out.ByStatus[k] = v
	}
	out.ByProject = make(map[string]int, len(in.ByProject))
	for k, v := range in.ByProject {
		out.ByProject[k] = v
	}
	return &out
}
