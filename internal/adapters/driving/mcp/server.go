package mcp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zmg-ops/zmg-management/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// DefaultHost keeps the HTTP transport on the local machine unless widened.
const DefaultHost = "127.0.0.1"

const shutdownTimeout = 5 * time.Second

// HTTPConfig configures the streamable HTTP transport.
type HTTPConfig struct {
	// Host is the interface to bind. Empty means DefaultHost.
	Host string
	Port int
	// Token, when set, must arrive as "Authorization: Bearer <token>".
	Token string
}

// Addr returns the host:port to listen on.
func (c HTTPConfig) Addr() string {
	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// Validate rejects a listener reachable from other machines that has no token.
// The tools read business spreadsheets with the service role's permissions.
func (c HTTPConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("mcp: invalid port %d", c.Port)
	}
	if c.Token == "" && !isLoopback(c.Host) {
		return fmt.Errorf("%w: %s", ErrExposedWithoutToken, c.Addr())
	}
	return nil
}

func isLoopback(host string) bool {
	if host == "" || strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Server exposes the tables to MCP clients as a fixed service principal.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(&mcp.Implementation{Name: "zmg", Version: Version}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdio until the context is cancelled or the client leaves.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler, guarded by the token if one is set.
func (s *Server) Handler(token string) http.Handler {
	var h http.Handler = mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
	if token != "" {
		h = requireToken(token, h)
	}
	return h
}

// RunHTTP serves over HTTP until the context is cancelled.
func (s *Server) RunHTTP(ctx context.Context, cfg HTTPConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("mcp: listen: %w", err)
	}
	srv := &http.Server{
		Handler:           s.Handler(cfg.Token),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp: shutdown: %v", err)
		}
	}()

	logger.Info("mcp: listening on http://%s (token required: %t)", ln.Addr(), cfg.Token != "")
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requireToken(token string, next http.Handler) http.Handler {
	want := []byte(token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), want) != 1 {
			logger.Debug("mcp: rejected request from %s", r.RemoteAddr)
			w.Header().Set("WWW-Authenticate", `Bearer realm="zmg-mcp"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
