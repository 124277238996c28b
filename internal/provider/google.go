package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/graviton-studio/logos-I/internal/credential"
)

// GoogleTokenURL is the Google OAuth2 token endpoint shared by every
// Google-family integration (calendar, mail, sheets, drive).
const GoogleTokenURL = "https://oauth2.googleapis.com/token"

// refreshTimeout bounds the outbound token-endpoint call so a slow provider
// never hangs a tool invocation.
const refreshTimeout = 15 * time.Second

// googleTokenResponse is the token endpoint's success payload.
type googleTokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Google refreshes access tokens against the Google OAuth2 token endpoint.
// One instance serves every Google-family provider key since they share a
// token endpoint and client credentials.
type Google struct {
	key          string
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
}

// GoogleOption configures a Google provider.
type GoogleOption func(*Google)

// WithTokenURL overrides the token endpoint, for tests.
func WithTokenURL(url string) GoogleOption {
	return func(g *Google) {
		g.tokenURL = url
	}
}

// WithHTTPClient overrides the HTTP client used for refresh calls.
func WithHTTPClient(client *http.Client) GoogleOption {
	return func(g *Google) {
		g.httpClient = client
	}
}

// NewGoogle creates a Google-family provider registered under the given key.
func NewGoogle(key, clientID, clientSecret string, opts ...GoogleOption) *Google {
	g := &Google{
		key:          key,
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     GoogleTokenURL,
		httpClient:   &http.Client{Timeout: refreshTimeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Key returns the provider key.
func (g *Google) Key() string {
	return g.key
}

// SupportsRefresh always reports true for Google-family providers.
func (g *Google) SupportsRefresh() bool {
	return true
}

// Refresh exchanges the stored refresh token for a new access token.
func (g *Google) Refresh(ctx context.Context, cred *credential.Credential) (*credential.Credential, error) {
	if cred.RefreshToken == "" {
		return nil, &RefreshError{Provider: g.key, Detail: "no refresh token on file"}
	}

	form := url.Values{
		"client_id":     {g.clientID},
		"client_secret": {g.clientSecret},
		"refresh_token": {cred.RefreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &RefreshError{Provider: g.key, Detail: "build refresh request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &RefreshError{Provider: g.key, Detail: fmt.Sprintf("token endpoint unreachable: %v", err), Err: err}
	}
	defer resp.Body.Close()

	// The error body is small; cap the read regardless.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &RefreshError{Provider: g.key, StatusCode: resp.StatusCode, Detail: "read response body", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &RefreshError{Provider: g.key, StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(body))}
	}

	var tokenResp googleTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, &RefreshError{Provider: g.key, StatusCode: resp.StatusCode, Detail: "malformed token response", Err: err}
	}
	if tokenResp.AccessToken == "" {
		return nil, &RefreshError{Provider: g.key, StatusCode: resp.StatusCode, Detail: "token response missing access_token"}
	}

	refreshed := cred.Clone()
	refreshed.AccessToken = tokenResp.AccessToken
	expiresAt := time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second).UTC()
	refreshed.ExpiresAt = &expiresAt

	// Google only returns a refresh token on the initial grant; keep the
	// stored one unless the response carries a replacement.
	if tokenResp.RefreshToken != "" {
		refreshed.RefreshToken = tokenResp.RefreshToken
	}
	if tokenResp.TokenType != "" {
		refreshed.TokenType = tokenResp.TokenType
	}
	if tokenResp.Scope != "" {
		refreshed.Scope = tokenResp.Scope
	}

	return refreshed, nil
}
