package google

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/graviton-studio/logos-I/internal/token"
)

// TokenSource returns an oauth2.TokenSource backed by the token service.
// Every Token call goes through GetValidCredential, so expired access tokens
// are refreshed and persisted before the API client ever sees them. The
// source holds no token state of its own.
//
// The context is captured because oauth2.TokenSource.Token takes none; use a
// request-scoped context so refresh round trips are cancelled with the
// request.
func TokenSource(ctx context.Context, tokens *token.Service, userID, providerKey string) oauth2.TokenSource {
	return &serviceTokenSource{ctx: ctx, tokens: tokens, userID: userID, providerKey: providerKey}
}

type serviceTokenSource struct {
	ctx         context.Context
	tokens      *token.Service
	userID      string
	providerKey string
}

func (ts *serviceTokenSource) Token() (*oauth2.Token, error) {
	cred, err := ts.tokens.GetValidCredential(ts.ctx, ts.userID, ts.providerKey)
	if err != nil {
		return nil, err
	}

	tok := &oauth2.Token{
		AccessToken: cred.AccessToken,
		TokenType:   cred.TokenType,
		Expiry:      expiryOrZero(cred.ExpiresAt),
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	return tok, nil
}

// NewHTTPClient wraps the token source in an authenticating HTTP client.
// The transport is pinned to HTTP/1.1; the Google APIs intermittently reset
// HTTP/2 streams on large uploads.
func NewHTTPClient(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	client := oauth2.NewClient(ctx, ts)

	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		ForceAttemptHTTP2: false,
	}

	return client
}
