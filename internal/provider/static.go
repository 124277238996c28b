package provider

import (
	"context"

	"github.com/graviton-studio/logos-I/internal/credential"
)

// Static serves providers whose tokens do not expire and cannot be
// refreshed (Slack bot tokens, Airtable personal access tokens, Exa API
// keys). Stored credentials for these keys normally carry no expiry and are
// valid for the lifetime of the grant.
type Static struct {
	key string
}

// NewStatic creates a non-refreshing provider for the given key.
func NewStatic(key string) *Static {
	return &Static{key: key}
}

// Key returns the provider key.
func (s *Static) Key() string {
	return s.key
}

// SupportsRefresh always reports false.
func (s *Static) SupportsRefresh() bool {
	return false
}

// Refresh always fails; static providers have no token endpoint.
func (s *Static) Refresh(ctx context.Context, cred *credential.Credential) (*credential.Credential, error) {
	return nil, &RefreshError{Provider: s.key, Detail: ErrRefreshNotSupported.Error(), Err: ErrRefreshNotSupported}
}
