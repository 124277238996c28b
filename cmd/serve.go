package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/graviton-studio/logos-I/internal/config"
	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/crypto"
	"github.com/graviton-studio/logos-I/internal/google"
	"github.com/graviton-studio/logos-I/internal/instrumentation"
	"github.com/graviton-studio/logos-I/internal/logging"
	"github.com/graviton-studio/logos-I/internal/provider"
	"github.com/graviton-studio/logos-I/internal/server"
	"github.com/graviton-studio/logos-I/internal/token"
	"github.com/graviton-studio/logos-I/internal/tools/airtable_tools"
	"github.com/graviton-studio/logos-I/internal/tools/calendar_tools"
	"github.com/graviton-studio/logos-I/internal/tools/drive_tools"
	"github.com/graviton-studio/logos-I/internal/tools/gmail_tools"
	"github.com/graviton-studio/logos-I/internal/tools/search_tools"
	"github.com/graviton-studio/logos-I/internal/tools/sheets_tools"
	"github.com/graviton-studio/logos-I/internal/tools/slack_tools"
)

func newServeCmd() *cobra.Command {
	var (
		debugMode   bool
		transport   string
		listenAddr  string
		metricsAddr string
		yolo        bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP gateway",
		Long: `Start the Model Context Protocol (MCP) gateway.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport with bearer auth

Safety Mode:
  By default, the gateway operates in read-only mode, providing only safe
  operations. Use --yolo to enable write operations (email sending, file
  deletion, etc.)

Configuration arrives through the environment (see config.Load): the
encryption key, database URL, Google OAuth client, and JWT secret. A .env
file and AWS Secrets Manager are both supported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(transport, listenAddr, metricsAddr, yolo, debugMode)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&listenAddr, "listen-addr", "", "HTTP listen address (default from LISTEN_ADDR, then :8080)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Metrics/health listen address (default from METRICS_ADDR, then :9090)")
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (email sending, file deletion, etc.). Default is read-only mode.")

	return cmd
}

func runServe(transport, listenAddr, metricsAddr string, yolo, debugMode bool) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	config.LoadEnv(shutdownCtx, ".env")
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	logger := newLogger(transport, debugMode)
	slog.SetDefault(logger)

	// Instrumentation is optional; the gateway runs fine without it.
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	instrProvider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("creating instrumentation provider: %w", err)
	}
	defer func() {
		if err := instrProvider.Shutdown(context.Background()); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	store, err := openStore(shutdownCtx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	specs, err := config.LoadProviders(cfg.ProvidersFile)
	if err != nil {
		return err
	}
	registry, err := buildRegistry(specs, cfg)
	if err != nil {
		return err
	}

	tokenOpts := []token.Option{
		token.WithSafetyMargin(cfg.SafetyMargin),
		token.WithLogger(logger),
	}
	if instrProvider.Enabled() {
		tokenOpts = append(tokenOpts, token.WithMetrics(instrProvider.Metrics()))
	}
	tokens := token.NewService(store, registry, tokenOpts...)

	readOnly := !yolo
	ctxOpts := []server.ContextOption{
		server.WithLogger(logger),
		server.WithReadOnly(readOnly),
	}
	if instrProvider.Enabled() {
		ctxOpts = append(ctxOpts,
			server.WithMetrics(instrProvider.Metrics()),
			server.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)),
		)
	}
	sc := server.NewServerContext(shutdownCtx, cfg, tokens, ctxOpts...)
	defer func() {
		if err := sc.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	if readOnly {
		logger.Info("starting in read-only mode, use --yolo to enable write operations")
	} else {
		logger.Info("write operations enabled")
	}

	mcpSrv := mcpserver.NewMCPServer("logos", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerAllTools(mcpSrv, sc); err != nil {
		return err
	}

	// Background refresh sweep keeps stored tokens fresh even when no
	// tool calls arrive.
	if cfg.SweepInterval > 0 {
		sweeper := token.NewSweeper(tokens, store, token.WithSweepLogger(logger))
		go func() {
			if err := sweeper.Run(shutdownCtx, cfg.SweepInterval); err != nil && shutdownCtx.Err() == nil {
				logger.Error("token sweeper stopped", logging.Err(err))
			}
		}()
	}

	switch transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		return runHTTPServer(shutdownCtx, cfg, sc, mcpSrv, store, tokens, specs, instrProvider, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
	}
}

// newLogger builds the process logger. On stdio, stdout belongs to the MCP
// protocol, so logs go to stderr.
func newLogger(transport string, debugMode bool) *slog.Logger {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	if transport == "stdio" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// openStore opens the credential store. DATABASE_URL "memory" selects the
// in-memory store for local development and tests.
func openStore(ctx context.Context, cfg *config.Config) (credential.Store, error) {
	key, err := crypto.KeyFromBase64(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid ENCRYPTION_KEY: %w", err)
	}
	cipher, err := crypto.New(key)
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "memory" {
		return credential.NewMemoryStore(cipher), nil
	}
	return credential.NewPostgresStore(ctx, cfg.DatabaseURL, cipher)
}

// buildRegistry turns provider specs into a refresh registry. Refreshable
// specs get the Google token endpoint; the rest hold static tokens.
func buildRegistry(specs []config.ProviderSpec, cfg *config.Config) (*provider.Registry, error) {
	providers := make([]provider.Provider, 0, len(specs))
	for _, spec := range specs {
		if !spec.Refreshable {
			providers = append(providers, provider.NewStatic(spec.Key))
			continue
		}
		var opts []provider.GoogleOption
		if spec.TokenURL != "" {
			opts = append(opts, provider.WithTokenURL(spec.TokenURL))
		}
		providers = append(providers, provider.NewGoogle(spec.Key, cfg.GoogleClientID, cfg.GoogleClientSecret, opts...))
	}
	return provider.NewRegistry(providers...)
}

// buildConnectors creates the OAuth connect flow for every refreshable
// provider.
func buildConnectors(specs []config.ProviderSpec, cfg *config.Config) []*google.Connector {
	var connectors []*google.Connector
	for _, spec := range specs {
		if !spec.Refreshable {
			continue
		}
		connectors = append(connectors,
			google.NewConnector(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, spec.Key, spec.Scopes))
	}
	return connectors
}

func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	registrations := []struct {
		name     string
		register func() error
	}{
		{"Calendar", func() error { return calendar_tools.RegisterCalendarTools(mcpSrv, sc) }},
		{"Gmail", func() error { return gmail_tools.RegisterGmailTools(mcpSrv, sc) }},
		{"Sheets", func() error { return sheets_tools.RegisterSheetsTools(mcpSrv, sc) }},
		{"Drive", func() error { return drive_tools.RegisterDriveTools(mcpSrv, sc) }},
		{"Slack", func() error { return slack_tools.RegisterSlackTools(mcpSrv, sc) }},
		{"Airtable", func() error { return airtable_tools.RegisterAirtableTools(mcpSrv, sc) }},
		{"Search", func() error { return search_tools.RegisterSearchTools(mcpSrv, sc) }},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}
	return nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runHTTPServer(ctx context.Context, cfg *config.Config, sc *server.ServerContext, mcpSrv *mcpserver.MCPServer, store credential.Store, tokens *token.Service, specs []config.ProviderSpec, instrProvider *instrumentation.Provider, logger *slog.Logger) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required for the streamable-http transport")
	}
	auth, err := server.NewAuthenticator(cfg.JWTSecret)
	if err != nil {
		return err
	}

	connectHandler := server.NewConnectHandler(
		buildConnectors(specs, cfg), store, tokens, sc, cfg.JWTSecret, logger)

	httpServer := server.NewHTTPServer(server.HTTPServerConfig{
		Addr:           cfg.ListenAddr,
		MCPServer:      mcpSrv,
		ConnectHandler: connectHandler,
		Authenticator:  auth,
		Logger:         logger,
	})

	health := server.NewHealthChecker(sc, store)

	var metricsServer *server.MetricsServer
	if instrProvider.Enabled() {
		metricsServer, err = server.NewMetricsServer(cfg.MetricsAddr, instrProvider, health)
		if err != nil {
			return fmt.Errorf("creating metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
		logger.Info("metrics server started", "addr", metricsServer.Addr())
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()
	health.SetReady(true)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping http server")
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("http server stopped with error: %w", err)
		}
		return nil
	}

	health.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown failed", logging.Err(err))
		}
	}
	return nil
}
