package credential

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/graviton-studio/logos-I/internal/crypto"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read() error = %v", err)
	}
	cipher, err := crypto.New(key)
	if err != nil {
		t.Fatalf("crypto.New() error = %v", err)
	}
	return NewMemoryStore(cipher)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "u1", ProviderGCal)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on empty store error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_UpsertRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	expiry := time.Now().Add(time.Hour).UTC()
	cred := &Credential{
		UserID:       "u1",
		Provider:     ProviderGCal,
		AccessToken:  "a1",
		RefreshToken: "r1",
		TokenType:    "Bearer",
		ExpiresAt:    &expiry,
		Scope:        "https://www.googleapis.com/auth/calendar",
	}

	if err := s.Upsert(ctx, cred); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if cred.ID == "" {
		t.Error("Upsert() did not assign an ID")
	}

	got, err := s.Get(ctx, "u1", ProviderGCal)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got.AccessToken != "a1" || got.RefreshToken != "r1" {
		t.Errorf("Get() tokens = (%q, %q), want (a1, r1)", got.AccessToken, got.RefreshToken)
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(expiry) {
		t.Errorf("Get() ExpiresAt = %v, want %v", got.ExpiresAt, expiry)
	}
	if got.Scope != cred.Scope {
		t.Errorf("Get() Scope = %q, want %q", got.Scope, cred.Scope)
	}
}

func TestMemoryStore_EncryptedAtRest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, &Credential{UserID: "u1", Provider: ProviderSlack, AccessToken: "xoxb-secret"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	rec := s.records[storeKey("u1", ProviderSlack)]
	if strings.Contains(rec.encryptedAccess, "xoxb-secret") {
		t.Error("access token stored in plaintext")
	}
	if len(strings.Split(rec.encryptedAccess, ":")) != 3 {
		t.Errorf("stored ciphertext %q is not in iv:tag:ciphertext form", rec.encryptedAccess)
	}
}

func TestMemoryStore_UpsertIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &Credential{UserID: "u1", Provider: ProviderGCal, AccessToken: "a1", RefreshToken: "r1"}
	if err := s.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	second := &Credential{UserID: "u1", Provider: ProviderGCal, AccessToken: "a2", RefreshToken: "r1"}
	if err := s.Upsert(ctx, second); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	if s.Len() != 1 {
		t.Fatalf("store has %d records after two upserts for the same pair, want 1", s.Len())
	}
	if second.ID != first.ID {
		t.Errorf("second upsert assigned new ID %q, want stable ID %q", second.ID, first.ID)
	}

	got, err := s.Get(ctx, "u1", ProviderGCal)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.AccessToken != "a2" {
		t.Errorf("Get() AccessToken = %q, want latest value a2", got.AccessToken)
	}
}

func TestMemoryStore_SeparateProviders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, &Credential{UserID: "u1", Provider: ProviderGCal, AccessToken: "cal"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := s.Upsert(ctx, &Credential{UserID: "u1", Provider: ProviderGmail, AccessToken: "mail"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if s.Len() != 2 {
		t.Fatalf("store has %d records for two providers, want 2", s.Len())
	}

	got, err := s.Get(ctx, "u1", ProviderGmail)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.AccessToken != "mail" {
		t.Errorf("Get(gmail) AccessToken = %q, want mail", got.AccessToken)
	}
}

func TestMemoryStore_DeleteIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, &Credential{UserID: "u1", Provider: ProviderGCal, AccessToken: "a1"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if err := s.Delete(ctx, "u1", ProviderGCal); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "u1", ProviderGCal); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	// Second delete of the same pair is not an error.
	if err := s.Delete(ctx, "u1", ProviderGCal); err != nil {
		t.Errorf("repeated Delete() error = %v, want nil", err)
	}
}

func TestMemoryStore_ListExpiringBefore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := now.Add(-time.Hour)
	soon := now.Add(10 * time.Minute)
	later := now.Add(24 * time.Hour)

	for _, c := range []*Credential{
		{UserID: "u1", Provider: ProviderGCal, AccessToken: "a", ExpiresAt: &expired},
		{UserID: "u2", Provider: ProviderGCal, AccessToken: "b", ExpiresAt: &soon},
		{UserID: "u3", Provider: ProviderGCal, AccessToken: "c", ExpiresAt: &later},
		{UserID: "u4", Provider: ProviderSlack, AccessToken: "d"}, // no expiry
	} {
		if err := s.Upsert(ctx, c); err != nil {
			t.Fatalf("Upsert(%s) error = %v", c.UserID, err)
		}
	}

	creds, err := s.ListExpiringBefore(ctx, now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("ListExpiringBefore() error = %v", err)
	}

	if len(creds) != 2 {
		t.Fatalf("ListExpiringBefore() returned %d credentials, want 2", len(creds))
	}
	// Soonest expiry first.
	if creds[0].UserID != "u1" || creds[1].UserID != "u2" {
		t.Errorf("ListExpiringBefore() order = [%s, %s], want [u1, u2]", creds[0].UserID, creds[1].UserID)
	}
	if creds[0].AccessToken != "a" {
		t.Errorf("ListExpiringBefore() did not decrypt tokens, got %q", creds[0].AccessToken)
	}
}

func TestMemoryStore_CorruptCiphertext(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, &Credential{UserID: "u1", Provider: ProviderGCal, AccessToken: "a1"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	s.Corrupt("u1", ProviderGCal, "not-even-ciphertext")
	if _, err := s.Get(ctx, "u1", ProviderGCal); !errors.Is(err, crypto.ErrMalformedCiphertext) {
		t.Errorf("Get() with corrupted row error = %v, want ErrMalformedCiphertext", err)
	}

	s.Corrupt("u1", ProviderGCal, strings.Repeat("00", 16)+":"+strings.Repeat("00", 16)+":"+"deadbeef")
	if _, err := s.Get(ctx, "u1", ProviderGCal); !errors.Is(err, crypto.ErrAuthenticationFailed) {
		t.Errorf("Get() with tampered row error = %v, want ErrAuthenticationFailed", err)
	}
}
