package httpapi

import (
	"fmt"
	"net/http"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/logger"
)

// errNoPOTable is returned when the po_status table is disabled.
var errNoPOTable = fmt.Errorf("%w: purchase-order table is not configured", domain.ErrNotImplemented)

func (s *Server) handlePOSummary(w http.ResponseWriter, r *http.Request) {
	if s.deps.PurchaseOrders == nil {
		writeError(w, r, errNoPOTable)
		return
	}
	summary, err := s.deps.PurchaseOrders.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleClearPOCache(w http.ResponseWriter, r *http.Request) {
	if s.deps.PurchaseOrders == nil {
		writeError(w, r, errNoPOTable)
		return
	}
	s.deps.PurchaseOrders.ClearCache()
	logger.Info("http: %s cleared the PO summary cache", PrincipalFrom(r.Context()).User.Email)
	w.WriteHeader(http.StatusNoContent)
}
