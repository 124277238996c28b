package credential

import (
	"errors"
	"time"
)

// Provider keys for the integrations the gateway supports. The key selects
// both the OAuth refresh implementation and the tool set that consumes the
// credential.
const (
	ProviderGCal     = "gcal"
	ProviderGmail    = "gmail"
	ProviderGSheets  = "gsheets"
	ProviderGDrive   = "gdrive"
	ProviderSlack    = "slack"
	ProviderAirtable = "airtable"
	ProviderExa      = "exa"
)

// ErrNotFound indicates no credential is stored for a (user, provider) pair.
// Callers typically prompt the user to connect the integration.
var ErrNotFound = errors.New("credential not found")

// Credential holds the OAuth token material for one (user, provider) pair.
//
// AccessToken and RefreshToken are plaintext on this struct; the store
// encrypts them before persisting and decrypts on read, so plaintext token
// material only ever lives transiently in memory.
type Credential struct {
	// ID is a stable opaque identifier for the stored record.
	ID string

	// UserID is the owning user.
	UserID string

	// Provider is the provider key (e.g. "gcal"); together with UserID it
	// uniquely identifies the record.
	Provider string

	// AccessToken is the short-lived bearer credential.
	AccessToken string

	// RefreshToken is the long-lived credential used to mint new access
	// tokens. Empty when the authorization flow did not grant one.
	RefreshToken string

	// TokenType is passed through opaquely, typically "Bearer".
	TokenType string

	// ExpiresAt is the UTC instant after which AccessToken is invalid.
	// Nil means the token does not expire.
	ExpiresAt *time.Time

	// Scope is the advisory grant description. Not enforced here.
	Scope string

	// UpdatedAt is set by the store on every write.
	UpdatedAt time.Time
}

// ExpiresWithin reports whether the credential expires within the given lead
// time. A credential without an expiry never expires.
func (c *Credential) ExpiresWithin(lead time.Duration) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !time.Now().Add(lead).Before(*c.ExpiresAt)
}

// Refreshable reports whether a refresh token is on file.
func (c *Credential) Refreshable() bool {
	return c.RefreshToken != ""
}

// Clone returns a copy of the credential. ExpiresAt is copied by value so
// mutating the clone never aliases the original.
func (c *Credential) Clone() *Credential {
	clone := *c
	if c.ExpiresAt != nil {
		t := *c.ExpiresAt
		clone.ExpiresAt = &t
	}
	return &clone
}
