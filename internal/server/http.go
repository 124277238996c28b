package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// HTTPServer is the gateway's main HTTP surface: the streamable MCP
// endpoint plus the OAuth connect flow. Liveness, readiness, and metrics
// live on the separate MetricsServer.
type HTTPServer struct {
	httpServer *http.Server
	addr       string
	logger     *slog.Logger
}

// HTTPServerConfig wires the pieces the HTTP surface serves.
type HTTPServerConfig struct {
	Addr           string
	MCPServer      *mcpserver.MCPServer
	ConnectHandler *ConnectHandler
	Authenticator  *Authenticator
	Logger         *slog.Logger
}

// NewHTTPServer assembles the gateway mux. The /mcp endpoint requires a
// bearer token; the authenticated user id rides the request context into
// every tool call.
func NewHTTPServer(cfg HTTPServerConfig) *HTTPServer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	streamable := mcpserver.NewStreamableHTTPServer(cfg.MCPServer,
		mcpserver.WithEndpointPath("/mcp"),
	)
	mux.Handle("/mcp", cfg.Authenticator.Middleware(streamable))

	if cfg.ConnectHandler != nil {
		cfg.ConnectHandler.Register(mux, cfg.Authenticator)
	}

	return &HTTPServer{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		addr:   cfg.Addr,
		logger: logger,
	}
}

// Start begins serving and blocks until the listener fails or Shutdown is
// called.
func (s *HTTPServer) Start() error {
	s.logger.Info("http server starting", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *HTTPServer) Addr() string {
	return s.addr
}
