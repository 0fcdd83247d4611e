package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

// Query parameters with a fixed meaning; all others filter by column.
const (
	paramSearch = "q"
	paramLimit  = "limit"
	paramOffset = "offset"
)

type rowPatchRequest struct {
	Column *string           `json:"column,omitempty"`
	Value  string            `json:"value"`
	Fields map[string]string `json:"fields,omitempty"`
}

type rowAppendRequest struct {
	Fields map[string]string `json:"fields"`
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	schemas := s.deps.Tables.Schemas(PrincipalFrom(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{"tables": schemas})
}

func (s *Server) handleListRows(w http.ResponseWriter, r *http.Request) {
	query, err := parseRowQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	table := domain.TableName(mux.Vars(r)["table"])
	page, err := s.deps.Tables.List(r.Context(), PrincipalFrom(r.Context()), table, query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetRow(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	row, err := s.deps.Tables.Get(r.Context(), PrincipalFrom(r.Context()), domain.TableName(vars["table"]), vars["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req rowPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	principal := PrincipalFrom(ctx)
	table := domain.TableName(vars["table"])

	var (
		row *domain.Row
		err error
	)
	switch {
	case req.Column != nil && len(req.Fields) > 0:
		err = fmt.Errorf("%w: send either column/value or fields", domain.ErrInvalidInput)
	case req.Column != nil:
		row, err = s.deps.Tables.UpdateCell(ctx, principal, table, vars["id"], *req.Column, req.Value)
	case len(req.Fields) > 0:
		row, err = s.deps.Tables.UpdateRow(ctx, principal, table, vars["id"], req.Fields)
	default:
		err = fmt.Errorf("%w: column or fields required", domain.ErrInvalidInput)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleAppendRow(w http.ResponseWriter, r *http.Request) {
	var req rowAppendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.Fields) == 0 {
		writeError(w, r, fmt.Errorf("%w: fields required", domain.ErrInvalidInput))
		return
	}
	table := domain.TableName(mux.Vars(r)["table"])
	row, err := s.deps.Tables.Append(r.Context(), PrincipalFrom(r.Context()), table, req.Fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func parseRowQuery(r *http.Request) (domain.RowQuery, error) {
	values := r.URL.Query()
	query := domain.RowQuery{Search: values.Get(paramSearch)}

	var err error
	if query.Limit, err = intParam(values.Get(paramLimit)); err != nil {
		return query, fmt.Errorf("%w: limit: %v", domain.ErrInvalidInput, err)
	}
	if query.Offset, err = intParam(values.Get(paramOffset)); err != nil {
		return query, fmt.Errorf("%w: offset: %v", domain.ErrInvalidInput, err)
	}

	for key, vals := range values {
		if key == paramSearch || key == paramLimit || key == paramOffset || len(vals) == 0 {
			continue
		}
		if query.Filters == nil {
			query.Filters = make(map[string]string)
		}
		query.Filters[key] = vals[0]
	}
	return query, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
