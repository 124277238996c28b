package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/graviton-studio/logos-I/internal/credential"
)

// ErrUnsupportedProvider indicates no provider is registered for a key.
// This is a configuration error, not a user-recoverable condition.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// ErrRefreshNotSupported indicates the provider issues non-expiring tokens
// and has no refresh endpoint.
var ErrRefreshNotSupported = errors.New("provider does not support token refresh")

// Provider knows how to exchange a refresh token for a new access token at
// one external identity provider.
type Provider interface {
	// Key returns the provider key this implementation serves.
	Key() string

	// SupportsRefresh reports whether the provider has a refresh endpoint.
	SupportsRefresh() bool

	// Refresh exchanges the credential's refresh token for a new access
	// token. On success it returns a new credential with updated
	// AccessToken and ExpiresAt, preserving the refresh token when the
	// provider did not issue a new one. Expected failures (HTTP errors,
	// malformed responses, timeouts) are returned as *RefreshError; the
	// caller decides whether the failure is terminal.
	Refresh(ctx context.Context, cred *credential.Credential) (*credential.Credential, error)
}

// RefreshError carries the provider's response detail for a failed refresh.
type RefreshError struct {
	// Provider is the provider key the refresh targeted.
	Provider string

	// StatusCode is the HTTP status from the token endpoint, or 0 for
	// transport-level failures.
	StatusCode int

	// Detail is the provider's response body or the transport error text.
	Detail string

	// Err is the underlying error, if any.
	Err error
}

func (e *RefreshError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s token refresh failed: status %d: %s", e.Provider, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s token refresh failed: %s", e.Provider, e.Detail)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// Terminal reports whether the failure indicates a revoked or invalid grant
// rather than a transient outage. Terminal failures mean the stored
// credential is unusable and re-authorization is required.
func (e *RefreshError) Terminal() bool {
	switch e.StatusCode {
	case 400, 401, 403:
		return true
	}
	return false
}

// Registry holds the closed set of providers, built once at startup.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds a registry from the given providers. Registering two
// providers under the same key is a programmer error.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if _, dup := r.providers[p.Key()]; dup {
			return nil, fmt.Errorf("duplicate provider registration for %q", p.Key())
		}
		r.providers[p.Key()] = p
	}
	return r, nil
}

// Lookup returns the provider for a key, or ErrUnsupportedProvider.
func (r *Registry) Lookup(key string) (Provider, error) {
	p, ok := r.providers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, key)
	}
	return p, nil
}

// Keys returns the registered provider keys, sorted.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.providers))
	for k := range r.providers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
