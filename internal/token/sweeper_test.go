package token

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/provider"
)

func TestSweeper_RefreshesExpiring(t *testing.T) {
	store := newTestStore(t)
	var generation atomic.Int32
	fake := &fakeProvider{key: credential.ProviderGCal, refresh: rotatingRefresh(&generation)}
	registry, err := provider.NewRegistry(fake)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	svc := NewService(store, registry)
	sw := NewSweeper(svc, store)

	// Two near expiry, one comfortably fresh.
	seedCredential(t, store, "u1", credential.ProviderGCal, 2*time.Minute, "r1")
	seedCredential(t, store, "u2", credential.ProviderGCal, -time.Minute, "r2")
	seedCredential(t, store, "u3", credential.ProviderGCal, time.Hour, "r3")

	result, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if result.Scanned != 2 {
		t.Errorf("Scanned = %d, want 2", result.Scanned)
	}
	if result.Refreshed != 2 {
		t.Errorf("Refreshed = %d, want 2", result.Refreshed)
	}
	if result.Deleted != 0 || result.Failed != 0 {
		t.Errorf("Deleted/Failed = %d/%d, want 0/0", result.Deleted, result.Failed)
	}

	// The fresh one is untouched.
	u3, err := store.Get(context.Background(), "u3", credential.ProviderGCal)
	if err != nil {
		t.Fatalf("Get(u3) error = %v", err)
	}
	if u3.AccessToken != "access-gcal" {
		t.Errorf("u3 AccessToken = %q, want untouched access-gcal", u3.AccessToken)
	}
}

func TestSweeper_DeletesOnTerminalFailure(t *testing.T) {
	store := newTestStore(t)
	fake := &fakeProvider{key: credential.ProviderGCal}
	fake.refresh = func(ctx context.Context, cred *credential.Credential) (*credential.Credential, error) {
		return nil, &provider.RefreshError{
			Provider:   credential.ProviderGCal,
			StatusCode: http.StatusUnauthorized,
			Detail:     "invalid_client",
		}
	}
	registry, err := provider.NewRegistry(fake)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	svc := NewService(store, registry)
	sw := NewSweeper(svc, store)

	seedCredential(t, store, "u1", credential.ProviderGCal, -time.Minute, "r1")

	result, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if result.Deleted != 1 {
		t.Errorf("Deleted = %d, want 1", result.Deleted)
	}
	if _, err := store.Get(context.Background(), "u1", credential.ProviderGCal); !errors.Is(err, credential.ErrNotFound) {
		t.Errorf("Get() after terminal sweep error = %v, want ErrNotFound", err)
	}
}

func TestSweeper_KeepsOnTransientFailure(t *testing.T) {
	store := newTestStore(t)
	fake := &fakeProvider{key: credential.ProviderGCal}
	fake.refresh = func(ctx context.Context, cred *credential.Credential) (*credential.Credential, error) {
		return nil, &provider.RefreshError{
			Provider:   credential.ProviderGCal,
			StatusCode: http.StatusServiceUnavailable,
			Detail:     "upstream flake",
		}
	}
	registry, err := provider.NewRegistry(fake)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	svc := NewService(store, registry)
	sw := NewSweeper(svc, store)

	seedCredential(t, store, "u1", credential.ProviderGCal, -time.Minute, "r1")

	result, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
	// Transient failures leave the credential for the next pass.
	if _, err := store.Get(context.Background(), "u1", credential.ProviderGCal); err != nil {
		t.Errorf("Get() after transient sweep error = %v, want credential kept", err)
	}
}

func TestSweeper_DeletesUnrefreshable(t *testing.T) {
	store := newTestStore(t)
	var generation atomic.Int32
	fake := &fakeProvider{key: credential.ProviderGCal, refresh: rotatingRefresh(&generation)}
	registry, err := provider.NewRegistry(fake)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	svc := NewService(store, registry)
	sw := NewSweeper(svc, store)

	// Expired and no refresh token: retire it.
	seedCredential(t, store, "u1", credential.ProviderGCal, -time.Minute, "")

	result, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if result.Deleted != 1 {
		t.Errorf("Deleted = %d, want 1", result.Deleted)
	}
	if n := fake.refreshes.Load(); n != 0 {
		t.Errorf("refresh calls = %d, want 0", n)
	}
}

func TestSweeper_SkipsStaticProviders(t *testing.T) {
	store := newTestStore(t)
	registry, err := provider.NewRegistry(provider.NewStatic(credential.ProviderSlack))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	svc := NewService(store, registry)
	sw := NewSweeper(svc, store)

	// A slack credential someone stored with an expiry.
	seedCredential(t, store, "u1", credential.ProviderSlack, -time.Minute, "r1")

	result, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
	if _, err := store.Get(context.Background(), "u1", credential.ProviderSlack); err != nil {
		t.Errorf("Get() after skip error = %v, want credential kept", err)
	}
}

func TestSweeper_EmptyStore(t *testing.T) {
	store := newTestStore(t)
	registry, err := provider.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	svc := NewService(store, registry)
	sw := NewSweeper(svc, store)

	result, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if result.Scanned != 0 {
		t.Errorf("Scanned = %d, want 0", result.Scanned)
	}
}

func TestSweeper_BoundedConcurrency(t *testing.T) {
	store := newTestStore(t)

	var inFlight, maxInFlight atomic.Int32
	var generation atomic.Int32
	fake := &fakeProvider{key: credential.ProviderGCal}
	fake.refresh = func(ctx context.Context, cred *credential.Credential) (*credential.Credential, error) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return rotatingRefresh(&generation)(ctx, cred)
	}
	registry, err := provider.NewRegistry(fake)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	svc := NewService(store, registry)
	sw := NewSweeper(svc, store, WithSweepConcurrency(2))

	for _, user := range []string{"u1", "u2", "u3", "u4", "u5", "u6"} {
		seedCredential(t, store, user, credential.ProviderGCal, -time.Minute, "r-"+user)
	}

	result, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if result.Refreshed != 6 {
		t.Errorf("Refreshed = %d, want 6", result.Refreshed)
	}
	if m := maxInFlight.Load(); m > 2 {
		t.Errorf("max in-flight refreshes = %d, want <= 2", m)
	}
}

func TestSweeper_ContextCancelled(t *testing.T) {
	store := newTestStore(t)
	registry, err := provider.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	svc := NewService(store, registry)
	sw := NewSweeper(svc, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := sw.Sweep(ctx); err == nil {
		t.Error("Sweep() with cancelled context should fail")
	}
}
