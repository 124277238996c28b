package token

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/instrumentation"
	"github.com/graviton-studio/logos-I/internal/logging"
	"github.com/graviton-studio/logos-I/internal/provider"
)

// DefaultSweepConcurrency bounds how many refreshes a sweep runs at once.
const DefaultSweepConcurrency = 8

// SweepResult summarizes one sweep pass.
type SweepResult struct {
	Scanned   int
	Refreshed int
	Skipped   int
	Deleted   int
	Failed    int
}

type sweepOutcome int

const (
	outcomeRefreshed sweepOutcome = iota
	outcomeSkipped
	outcomeDeleted
	outcomeFailed
)

// Sweeper proactively refreshes credentials nearing expiry so interactive
// requests rarely pay the refresh round trip. Credentials whose refresh
// fails terminally (revoked or invalid grant) are deleted; transient
// failures are left for the next pass.
type Sweeper struct {
	service     *Service
	store       credential.Store
	lead        time.Duration
	concurrency int
	logger      *slog.Logger
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweepLead sets how far ahead of expiry the sweep looks. Defaults to
// the service safety margin.
func WithSweepLead(lead time.Duration) SweeperOption {
	return func(sw *Sweeper) {
		sw.lead = lead
	}
}

// WithSweepConcurrency bounds parallel refreshes per pass.
func WithSweepConcurrency(n int) SweeperOption {
	return func(sw *Sweeper) {
		if n > 0 {
			sw.concurrency = n
		}
	}
}

// WithSweepLogger sets the sweep logger.
func WithSweepLogger(logger *slog.Logger) SweeperOption {
	return func(sw *Sweeper) {
		sw.logger = logger
	}
}

// NewSweeper creates a sweeper over the service's store and providers.
func NewSweeper(service *Service, store credential.Store, opts ...SweeperOption) *Sweeper {
	sw := &Sweeper{
		service:     service,
		store:       store,
		lead:        service.margin,
		concurrency: DefaultSweepConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(sw)
	}
	return sw
}

// Sweep refreshes every credential expiring within the lead window.
// Individual failures are counted, not propagated; the returned error is
// only non-nil when the listing itself fails or the context is cancelled.
func (sw *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return SweepResult{}, err
	}

	expiring, err := sw.store.ListExpiringBefore(ctx, time.Now().Add(sw.lead))
	if err != nil {
		return SweepResult{}, err
	}

	result := SweepResult{Scanned: len(expiring)}
	if len(expiring) == 0 {
		return result, nil
	}

	outcomes := make([]sweepOutcome, len(expiring))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sw.concurrency)

	for i, cred := range expiring {
		g.Go(func() error {
			outcomes[i] = sw.sweepOne(gctx, cred)
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return SweepResult{}, err
	}

	for _, o := range outcomes {
		switch o {
		case outcomeRefreshed:
			result.Refreshed++
		case outcomeSkipped:
			result.Skipped++
		case outcomeDeleted:
			result.Deleted++
		case outcomeFailed:
			result.Failed++
		}
	}

	metrics := sw.service.metrics
	metrics.RecordSweepOutcome(ctx, instrumentation.SweepRefreshed, result.Refreshed)
	metrics.RecordSweepOutcome(ctx, instrumentation.SweepSkipped, result.Skipped)
	metrics.RecordSweepOutcome(ctx, instrumentation.SweepDeleted, result.Deleted)
	metrics.RecordSweepOutcome(ctx, instrumentation.SweepFailed, result.Failed)

	sw.logger.Info("sweep complete",
		slog.Int("scanned", result.Scanned),
		slog.Int("refreshed", result.Refreshed),
		slog.Int("skipped", result.Skipped),
		slog.Int("deleted", result.Deleted),
		slog.Int("failed", result.Failed),
		slog.Duration(logging.KeyDuration, time.Since(start)),
	)

	return result, nil
}

// sweepOne refreshes or retires a single credential and classifies the
// outcome.
func (sw *Sweeper) sweepOne(ctx context.Context, cred *credential.Credential) sweepOutcome {
	logger := sw.logger.With(
		logging.Provider(cred.Provider),
		slog.String(logging.KeyUserHash, logging.AnonymizeUserID(cred.UserID)),
	)

	// Non-refreshing providers land in the listing only when someone stored
	// an expiry for them; nothing to do here.
	prov, err := sw.service.providers.Lookup(cred.Provider)
	if err != nil || !prov.SupportsRefresh() {
		return outcomeSkipped
	}

	if !cred.Refreshable() {
		logger.Warn("deleting expired credential with no refresh token")
		if err := sw.store.Delete(ctx, cred.UserID, cred.Provider); err != nil {
			logger.Error("delete failed", logging.Err(err))
			return outcomeFailed
		}
		return outcomeDeleted
	}

	_, err = sw.service.refresh(ctx, cred.UserID, cred.Provider)
	if err == nil {
		return outcomeRefreshed
	}

	var refreshErr *provider.RefreshError
	if errors.As(err, &refreshErr) && refreshErr.Terminal() {
		logger.Warn("deleting credential after terminal refresh failure",
			slog.Int("status", refreshErr.StatusCode))
		if derr := sw.store.Delete(ctx, cred.UserID, cred.Provider); derr != nil {
			logger.Error("delete failed", logging.Err(derr))
			return outcomeFailed
		}
		return outcomeDeleted
	}

	// Concurrent callers may have already refreshed or removed it.
	if errors.Is(err, credential.ErrNotFound) {
		return outcomeSkipped
	}

	logger.Warn("sweep refresh failed", logging.Err(err))
	return outcomeFailed
}

// Run sweeps on a fixed interval until the context is cancelled. The first
// pass runs immediately.
func (sw *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := sw.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
			sw.logger.Error("sweep pass failed", logging.Err(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
