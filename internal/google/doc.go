// Package google bridges the credential layer and the Google API clients.
// It runs the authorization-code connect flow for the Google-family
// providers and adapts the token service into an oauth2.TokenSource so API
// clients pick up refreshed access tokens transparently.
package google
