package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/zmg-ops/zmg-management/internal/connectors/google"
	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/logger"
)

const defaultRetryAfter = 60

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("http: failed to encode response: %v", err)
	}
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrWeakPassword),
		errors.Is(err, domain.ErrColumnNotFound),
		errors.Is(err, domain.ErrReadOnlyColumn):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidCode),
		errors.Is(err, domain.ErrCodeExpired),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrTokenUsed):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrInactiveUser):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrUnknownTable),
		errors.Is(err, domain.ErrUnknownFolder):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrDuplicateRow):
		return http.StatusConflict
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrRateLimited),
		errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrNotImplemented):
		return http.StatusNotImplemented
	case google.IsUnauthorized(err), google.IsForbidden(err):
		// The service account, not the caller, lacks access.
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as JSON. Server-side failures are logged and their
// details withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	id := RequestIDFrom(r.Context())
	msg := err.Error()

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("http: %s %s [%s]: %v", r.Method, r.URL.Path, id, err)
		msg = http.StatusText(status)
		if status == http.StatusBadGateway {
			msg = "upstream service denied access"
		}
	case status == http.StatusTooManyRequests:
		retry := google.RetryAfter(err)
		if retry <= 0 {
			retry = defaultRetryAfter
		}
		w.Header().Set("Retry-After", strconv.Itoa(retry))
	case status == http.StatusUnauthorized && errors.Is(err, domain.ErrUnauthenticated):
		msg = domain.ErrUnauthenticated.Error()
	}

	writeJSON(w, status, errorBody{Error: msg, RequestID: id})
}

// decodeJSON reads a JSON request body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body required", domain.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON: %v", domain.ErrInvalidInput, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", domain.ErrInvalidInput)
	}
	return nil
}
