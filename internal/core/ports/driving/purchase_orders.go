package driving

import (
	"context"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

// PurchaseOrderService aggregates the purchase-order status table.
type PurchaseOrderService interface {
	// Summary returns the counts, served from cache while it is fresh.
	Summary(ctx context.Context) (*domain.POSummary, error)

	// ClearCache discards the cached summary.
	ClearCache()
}
