package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/graviton-studio/logos-I/internal/calendar"
	"github.com/graviton-studio/logos-I/internal/config"
	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/drive"
	"github.com/graviton-studio/logos-I/internal/gmail"
	"github.com/graviton-studio/logos-I/internal/google"
	"github.com/graviton-studio/logos-I/internal/instrumentation"
	"github.com/graviton-studio/logos-I/internal/sheets"
	"github.com/graviton-studio/logos-I/internal/token"
)

// ServerContext carries the gateway's shared dependencies: the token
// service, per-user Google API clients, and instrumentation. Tool handlers
// reach everything through it.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg    *config.Config
	tokens *token.Service
	logger *slog.Logger

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	readOnly bool

	mu              sync.RWMutex
	calendarClients map[string]*calendar.Client // keyed by user id
	gmailClients    map[string]*gmail.Client
	sheetsClients   map[string]*sheets.Client
	driveClients    map[string]*drive.Client
	shutdown        bool
}

// ContextOption configures a ServerContext.
type ContextOption func(*ServerContext)

// WithMetrics attaches a metrics recorder.
func WithMetrics(metrics *instrumentation.Metrics) ContextOption {
	return func(sc *ServerContext) {
		sc.metrics = metrics
	}
}

// WithAuditLogger attaches an audit logger.
func WithAuditLogger(auditLogger *instrumentation.AuditLogger) ContextOption {
	return func(sc *ServerContext) {
		sc.auditLogger = auditLogger
	}
}

// WithLogger sets the context logger.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(sc *ServerContext) {
		sc.logger = logger
	}
}

// WithReadOnly disables tools that mutate provider state.
func WithReadOnly(readOnly bool) ContextOption {
	return func(sc *ServerContext) {
		sc.readOnly = readOnly
	}
}

// NewServerContext creates a server context over the token service.
func NewServerContext(ctx context.Context, cfg *config.Config, tokens *token.Service, opts ...ContextOption) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		cfg:             cfg,
		tokens:          tokens,
		logger:          slog.Default(),
		calendarClients: make(map[string]*calendar.Client),
		gmailClients:    make(map[string]*gmail.Client),
		sheetsClients:   make(map[string]*sheets.Client),
		driveClients:    make(map[string]*drive.Client),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Context returns the server lifetime context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the gateway configuration.
func (sc *ServerContext) Config() *config.Config {
	return sc.cfg
}

// Tokens returns the token service.
func (sc *ServerContext) Tokens() *token.Service {
	return sc.tokens
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, which may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// ReadOnly reports whether mutating tools are disabled.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// CalendarClient returns the cached Calendar client for a user, creating it
// on first use. The client's token source pulls fresh access tokens from the
// token service per call, so the cache never holds stale credentials.
func (sc *ServerContext) CalendarClient(userID string) (*calendar.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.calendarClients[userID]; ok {
		return client, nil
	}

	ts := google.TokenSource(sc.ctx, sc.tokens, userID, credential.ProviderGCal)
	client, err := calendar.NewClient(sc.ctx, userID, ts)
	if err != nil {
		return nil, fmt.Errorf("create Calendar client: %w", err)
	}
	sc.calendarClients[userID] = client
	return client, nil
}

// GmailClient returns the cached Gmail client for a user, creating it on
// first use.
func (sc *ServerContext) GmailClient(userID string) (*gmail.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.gmailClients[userID]; ok {
		return client, nil
	}

	ts := google.TokenSource(sc.ctx, sc.tokens, userID, credential.ProviderGmail)
	client, err := gmail.NewClient(sc.ctx, userID, ts)
	if err != nil {
		return nil, fmt.Errorf("create Gmail client: %w", err)
	}
	sc.gmailClients[userID] = client
	return client, nil
}

// SheetsClient returns the cached Sheets client for a user, creating it on
// first use.
func (sc *ServerContext) SheetsClient(userID string) (*sheets.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.sheetsClients[userID]; ok {
		return client, nil
	}

	ts := google.TokenSource(sc.ctx, sc.tokens, userID, credential.ProviderGSheets)
	client, err := sheets.NewClient(sc.ctx, userID, ts)
	if err != nil {
		return nil, fmt.Errorf("create Sheets client: %w", err)
	}
	sc.sheetsClients[userID] = client
	return client, nil
}

// DriveClient returns the cached Drive client for a user, creating it on
// first use.
func (sc *ServerContext) DriveClient(userID string) (*drive.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.driveClients[userID]; ok {
		return client, nil
	}

	ts := google.TokenSource(sc.ctx, sc.tokens, userID, credential.ProviderGDrive)
	client, err := drive.NewClient(sc.ctx, userID, ts)
	if err != nil {
		return nil, fmt.Errorf("create Drive client: %w", err)
	}
	sc.driveClients[userID] = client
	return client, nil
}

// InvalidateUser drops all cached clients for a user. Called when the user
// disconnects an integration.
func (sc *ServerContext) InvalidateUser(userID string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	delete(sc.calendarClients, userID)
	delete(sc.gmailClients, userID)
	delete(sc.sheetsClients, userID)
	delete(sc.driveClients, userID)
}

// IsShutdown reports whether the context has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server lifetime context. Safe to call twice.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	sc.logger.Info("server context shut down")
	return nil
}
