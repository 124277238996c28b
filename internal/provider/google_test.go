package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/graviton-studio/logos-I/internal/credential"
)

func expiredCredential() *credential.Credential {
	expiry := time.Now().Add(-time.Hour).UTC()
	return &credential.Credential{
		ID:           "id-1",
		UserID:       "u1",
		Provider:     credential.ProviderGCal,
		AccessToken:  "a1",
		RefreshToken: "r1",
		TokenType:    "Bearer",
		ExpiresAt:    &expiry,
	}
}

func TestGoogle_RefreshSuccess(t *testing.T) {
	var gotForm map[string]string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("token endpoint method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %s, want application/x-www-form-urlencoded", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() error = %v", err)
		}
		gotForm = map[string]string{
			"client_id":     r.PostFormValue("client_id"),
			"client_secret": r.PostFormValue("client_secret"),
			"refresh_token": r.PostFormValue("refresh_token"),
			"grant_type":    r.PostFormValue("grant_type"),
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "a2",
			"expires_in":   3600,
			"token_type":   "Bearer",
		})
	}))
	defer ts.Close()

	g := NewGoogle(credential.ProviderGCal, "client-id", "client-secret", WithTokenURL(ts.URL))

	before := time.Now()
	refreshed, err := g.Refresh(context.Background(), expiredCredential())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	want := map[string]string{
		"client_id":     "client-id",
		"client_secret": "client-secret",
		"refresh_token": "r1",
		"grant_type":    "refresh_token",
	}
	for k, v := range want {
		if gotForm[k] != v {
			t.Errorf("form[%s] = %q, want %q", k, gotForm[k], v)
		}
	}

	if refreshed.AccessToken != "a2" {
		t.Errorf("AccessToken = %q, want a2", refreshed.AccessToken)
	}
	// Refresh token preserved when the response omits a new one.
	if refreshed.RefreshToken != "r1" {
		t.Errorf("RefreshToken = %q, want preserved r1", refreshed.RefreshToken)
	}
	if refreshed.ExpiresAt == nil {
		t.Fatal("ExpiresAt is nil after refresh")
	}
	lower := before.Add(3590 * time.Second)
	upper := time.Now().Add(3610 * time.Second)
	if refreshed.ExpiresAt.Before(lower) || refreshed.ExpiresAt.After(upper) {
		t.Errorf("ExpiresAt = %v, want ~now+1h", refreshed.ExpiresAt)
	}
	// Identity fields untouched.
	if refreshed.ID != "id-1" || refreshed.UserID != "u1" || refreshed.Provider != credential.ProviderGCal {
		t.Errorf("identity fields changed: %+v", refreshed)
	}
}

func TestGoogle_RefreshRotatesRefreshToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "a2",
			"expires_in":    3600,
			"refresh_token": "r2",
		})
	}))
	defer ts.Close()

	g := NewGoogle(credential.ProviderGCal, "id", "secret", WithTokenURL(ts.URL))
	refreshed, err := g.Refresh(context.Background(), expiredCredential())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if refreshed.RefreshToken != "r2" {
		t.Errorf("RefreshToken = %q, want rotated r2", refreshed.RefreshToken)
	}
}

func TestGoogle_RefreshHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been revoked."}`))
	}))
	defer ts.Close()

	g := NewGoogle(credential.ProviderGCal, "id", "secret", WithTokenURL(ts.URL))
	_, err := g.Refresh(context.Background(), expiredCredential())

	var refreshErr *RefreshError
	if !errors.As(err, &refreshErr) {
		t.Fatalf("Refresh() error = %T, want *RefreshError", err)
	}
	if refreshErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", refreshErr.StatusCode)
	}
	if !refreshErr.Terminal() {
		t.Error("invalid_grant failure should be terminal")
	}
}

func TestGoogle_RefreshTransientError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	g := NewGoogle(credential.ProviderGCal, "id", "secret", WithTokenURL(ts.URL))
	_, err := g.Refresh(context.Background(), expiredCredential())

	var refreshErr *RefreshError
	if !errors.As(err, &refreshErr) {
		t.Fatalf("Refresh() error = %T, want *RefreshError", err)
	}
	if refreshErr.Terminal() {
		t.Error("503 failure should not be terminal")
	}
}

func TestGoogle_RefreshMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"missing access_token", `{"expires_in": 3600}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			g := NewGoogle(credential.ProviderGCal, "id", "secret", WithTokenURL(ts.URL))
			_, err := g.Refresh(context.Background(), expiredCredential())

			var refreshErr *RefreshError
			if !errors.As(err, &refreshErr) {
				t.Fatalf("Refresh() error = %T, want *RefreshError", err)
			}
		})
	}
}

func TestGoogle_RefreshNoRefreshToken(t *testing.T) {
	g := NewGoogle(credential.ProviderGCal, "id", "secret")
	cred := expiredCredential()
	cred.RefreshToken = ""

	var refreshErr *RefreshError
	if _, err := g.Refresh(context.Background(), cred); !errors.As(err, &refreshErr) {
		t.Fatalf("Refresh() without refresh token error = %T, want *RefreshError", err)
	}
}

func TestGoogle_RefreshContextCancelled(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	// Unblock the handler before Close waits on it.
	defer close(release)

	g := NewGoogle(credential.ProviderGCal, "id", "secret", WithTokenURL(ts.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var refreshErr *RefreshError
	if _, err := g.Refresh(ctx, expiredCredential()); !errors.As(err, &refreshErr) {
		t.Fatalf("Refresh() with cancelled context error = %T, want *RefreshError", err)
	}
}
