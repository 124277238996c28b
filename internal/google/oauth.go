package google

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/graviton-studio/logos-I/internal/credential"
)

// Connector runs the OAuth2 authorization-code flow for one Google-family
// provider. The resulting credential is stored under the provider key so the
// matching tool set can find it.
type Connector struct {
	conf        *oauth2.Config
	providerKey string
}

// ConnectorOption configures a Connector.
type ConnectorOption func(*Connector)

// WithEndpoint overrides the OAuth endpoints, used in tests and staging.
func WithEndpoint(authURL, tokenURL string) ConnectorOption {
	return func(c *Connector) {
		c.conf.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
	}
}

// NewConnector builds a connector for the given provider key and scopes.
func NewConnector(clientID, clientSecret, redirectURL, providerKey string, scopes []string, opts ...ConnectorOption) *Connector {
	c := &Connector{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     googleoauth.Endpoint,
			RedirectURL:  redirectURL,
			Scopes:       scopes,
		},
		providerKey: providerKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProviderKey returns the provider key credentials are stored under.
func (c *Connector) ProviderKey() string {
	return c.providerKey
}

// AuthURL returns the consent-screen URL for the given state token.
// Offline access is requested so Google issues a refresh token, and consent
// is forced because Google omits the refresh token on repeat authorizations
// otherwise.
func (c *Connector) AuthURL(state string) string {
	return c.conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange swaps an authorization code for tokens and maps them to a
// credential owned by userID.
func (c *Connector) Exchange(ctx context.Context, userID, code string) (*credential.Credential, error) {
	tok, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange auth code for %s: %w", c.providerKey, err)
	}

	cred := &credential.Credential{
		UserID:       userID,
		Provider:     c.providerKey,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry.UTC()
		cred.ExpiresAt = &expiry
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		cred.Scope = scope
	}
	return cred, nil
}

// expiryOrZero converts a credential expiry to the oauth2 representation,
// where the zero time means the token never expires.
func expiryOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
