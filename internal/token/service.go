package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/instrumentation"
	"github.com/graviton-studio/logos-I/internal/logging"
	"github.com/graviton-studio/logos-I/internal/provider"
)

// DefaultSafetyMargin is the lead time before actual expiry at which a token
// is proactively treated as needing refresh.
const DefaultSafetyMargin = 5 * time.Minute

// UnrefreshableError indicates an expired credential with no refresh token
// on file. The caller should delete the credential and prompt the user to
// reconnect the integration.
type UnrefreshableError struct {
	UserID   string
	Provider string
}

func (e *UnrefreshableError) Error() string {
	return fmt.Sprintf("credential for %s/%s is expired and has no refresh token", e.UserID, e.Provider)
}

// Service is the single entry point for obtaining valid, decrypted access
// tokens. It orchestrates the store, the cipher (via the store), and the
// provider registry, refreshing just in time.
//
// All methods are safe for concurrent use. Refreshes for the same
// (user, provider) pair are serialized: concurrent callers that observe an
// expired token share one in-flight refresh instead of racing the
// provider's token endpoint, which can invalidate the previous token.
type Service struct {
	store     credential.Store
	providers *provider.Registry
	margin    time.Duration
	logger    *slog.Logger
	metrics   *instrumentation.Metrics

	group singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithSafetyMargin overrides the freshness safety margin.
func WithSafetyMargin(margin time.Duration) Option {
	return func(s *Service) {
		s.margin = margin
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics *instrumentation.Metrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// NewService creates a token service over the given store and providers.
func NewService(store credential.Store, providers *provider.Registry, opts ...Option) *Service {
	s := &Service{
		store:     store,
		providers: providers,
		margin:    DefaultSafetyMargin,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetCredential returns the stored credential as-is, decrypted, with no
// freshness check. Callers that handle expiry themselves (retry on 401)
// use this to avoid the refresh path.
func (s *Service) GetCredential(ctx context.Context, userID, providerKey string) (*credential.Credential, error) {
	return s.store.Get(ctx, userID, providerKey)
}

// GetValidCredential returns a credential whose access token is guaranteed
// fresh for at least the safety margin, refreshing and persisting first
// when needed.
//
// Error taxonomy: credential.ErrNotFound when the pair has no stored
// credential, *UnrefreshableError when expired without a refresh token,
// provider.ErrUnsupportedProvider for unknown provider keys, and
// *provider.RefreshError when the provider rejects or fails the refresh.
func (s *Service) GetValidCredential(ctx context.Context, userID, providerKey string) (*credential.Credential, error) {
	cred, err := s.store.Get(ctx, userID, providerKey)
	if err != nil {
		return nil, err
	}

	if !cred.ExpiresWithin(s.margin) {
		return cred, nil
	}

	if !cred.Refreshable() {
		return nil, &UnrefreshableError{UserID: userID, Provider: providerKey}
	}

	return s.refresh(ctx, userID, providerKey)
}

// refresh performs the serialized refresh cycle for a (user, provider)
// pair. Concurrent callers for the same pair share a single provider round
// trip and store write.
func (s *Service) refresh(ctx context.Context, userID, providerKey string) (*credential.Credential, error) {
	key := userID + "/" + providerKey

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.refreshLocked(ctx, userID, providerKey)
	})
	if err != nil {
		return nil, err
	}

	cred := v.(*credential.Credential)
	if shared {
		// Waiters receive the same struct; hand each its own copy so no
		// caller can mutate another's view.
		cred = cred.Clone()
	}
	return cred, nil
}

// refreshLocked runs with the per-key singleflight held.
func (s *Service) refreshLocked(ctx context.Context, userID, providerKey string) (*credential.Credential, error) {
	start := time.Now()
	logger := s.logger.With(
		logging.Provider(providerKey),
		slog.String(logging.KeyUserHash, logging.AnonymizeUserID(userID)),
	)

	// Re-read under the flight: a caller that lost the race to start the
	// refresh may arrive after a previous flight already persisted a fresh
	// token, in which case there is nothing to do.
	cred, err := s.store.Get(ctx, userID, providerKey)
	if err != nil {
		return nil, err
	}
	if !cred.ExpiresWithin(s.margin) {
		return cred, nil
	}
	if !cred.Refreshable() {
		return nil, &UnrefreshableError{UserID: userID, Provider: providerKey}
	}

	prov, err := s.providers.Lookup(providerKey)
	if err != nil {
		return nil, err
	}
	if !prov.SupportsRefresh() {
		return nil, &UnrefreshableError{UserID: userID, Provider: providerKey}
	}

	refreshed, err := prov.Refresh(ctx, cred)
	if err != nil {
		s.metrics.RecordTokenRefresh(ctx, providerKey, instrumentation.StatusError, time.Since(start))
		logger.Warn("token refresh failed", logging.Err(err))
		return nil, err
	}

	if err := s.store.Upsert(ctx, refreshed); err != nil {
		s.metrics.RecordTokenRefresh(ctx, providerKey, instrumentation.StatusError, time.Since(start))
		return nil, fmt.Errorf("persist refreshed credential: %w", err)
	}

	s.metrics.RecordTokenRefresh(ctx, providerKey, instrumentation.StatusSuccess, time.Since(start))
	logger.Info("token refreshed",
		slog.Time("expires_at", derefTime(refreshed.ExpiresAt)),
		slog.Duration(logging.KeyDuration, time.Since(start)),
	)

	return refreshed, nil
}

// Disconnect removes the stored credential for a pair. Used when the user
// disconnects an integration or when a refresh fails terminally.
func (s *Service) Disconnect(ctx context.Context, userID, providerKey string) error {
	if err := s.store.Delete(ctx, userID, providerKey); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	s.logger.Info("credential disconnected",
		logging.Provider(providerKey),
		slog.String(logging.KeyUserHash, logging.AnonymizeUserID(userID)),
	)
	return nil
}

// Connected reports whether a usable credential exists for the pair: either
// unexpired, or expired but refreshable.
func (s *Service) Connected(ctx context.Context, userID, providerKey string) (bool, error) {
	cred, err := s.store.Get(ctx, userID, providerKey)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if cred.ExpiresWithin(0) && !cred.Refreshable() {
		return false, nil
	}
	return true, nil
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
