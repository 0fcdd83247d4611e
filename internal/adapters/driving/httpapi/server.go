// Package httpapi serves the JSON API used by the browser UI.
// Sessions travel in an HttpOnly cookie; every route past authentication is
// gated by a permission of the caller's role.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driving"
	"github.com/zmg-ops/zmg-management/internal/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	maxJSONBody     = 1 << 20
)

// Deps groups the driving ports the API exposes.
type Deps struct {
	Auth           driving.AuthService
	Users          driving.UserService
	Tables         driving.TableService
	PurchaseOrders driving.PurchaseOrderService
	Files          driving.FileService
}

// Server is the HTTP API server.
type Server struct {
	deps      Deps
	cfg       domain.ServerSettings
	maxUpload int64
	handler   http.Handler
}

// NewServer creates the API server and its routes.
func NewServer(deps Deps, settings *domain.AppSettings) *Server {
	s := &Server{
		deps:      deps,
		cfg:       settings.Server,
		maxUpload: settings.Files.MaxUploadBytes,
	}
	s.handler = chain(s.routes(),
		recovery,
		requestID,
		accessLog,
		cors(settings.Server.AllowedOrigins),
	)
	return s
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, fmt.Errorf("%w: %s", domain.ErrNotFound, r.URL.Path))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed", RequestID: RequestIDFrom(r.Context())})
	})

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Public authentication endpoints.
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/code", s.handleRequestCode).Methods(http.MethodPost)
	api.HandleFunc("/auth/code/verify", s.handleVerifyCode).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/auth/setup-password", s.handleSetupPassword).Methods(http.MethodPost)

	// Everything below requires a session.
	authed := api.NewRoute().Subrouter()
	authed.Use(s.authenticate)

	authed.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	authed.HandleFunc("/auth/password", s.handleChangePassword).Methods(http.MethodPost)

	users := authed.PathPrefix("/users").Subrouter()
	users.Use(requirePermission(domain.PermManageUsers))
	users.HandleFunc("", s.handleListUsers).Methods(http.MethodGet)
	users.HandleFunc("", s.handleCreateUser).Methods(http.MethodPost)
	users.HandleFunc("/{id}", s.handleUpdateUser).Methods(http.MethodPatch)
	users.HandleFunc("/{id}/setup-link", s.handleSetupLink).Methods(http.MethodPost)

	// Table permissions depend on the table and are checked by the service.
	authed.HandleFunc("/tables", s.handleListTables).Methods(http.MethodGet)
	authed.HandleFunc("/tables/{table}/rows", s.handleListRows).Methods(http.MethodGet)
	authed.HandleFunc("/tables/{table}/rows", s.handleAppendRow).Methods(http.MethodPost)
	authed.HandleFunc("/tables/{table}/rows/{id}", s.handleGetRow).Methods(http.MethodGet)
	authed.HandleFunc("/tables/{table}/rows/{id}", s.handleUpdateRow).Methods(http.MethodPatch)

	authed.Handle("/po/summary",
		requirePermission(domain.PermViewPO)(http.HandlerFunc(s.handlePOSummary))).Methods(http.MethodGet)
	authed.Handle("/po/cache/clear",
		requirePermission(domain.PermManageCache)(http.HandlerFunc(s.handleClearPOCache))).Methods(http.MethodPost)

	authed.HandleFunc("/files/folders", s.handleListFolders).Methods(http.MethodGet)
	authed.HandleFunc("/files/{folder}", s.handleListFiles).Methods(http.MethodGet)
	authed.HandleFunc("/files/{folder}", s.handleUpload).Methods(http.MethodPost)

	return r
}

// ListenAndServe serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http: listening on %s", s.cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("http: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
