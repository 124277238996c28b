package calendar_tools

import (
	"context"
	"strings"
	"testing"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/graviton-studio/logos-I/internal/calendar"
	"github.com/graviton-studio/logos-I/internal/config"
	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/crypto"
	"github.com/graviton-studio/logos-I/internal/provider"
	"github.com/graviton-studio/logos-I/internal/server"
	"github.com/graviton-studio/logos-I/internal/token"
)

func newTestServerContext(t *testing.T) *server.ServerContext {
	t.Helper()

	encoded, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	key, err := crypto.KeyFromBase64(encoded)
	if err != nil {
		t.Fatalf("KeyFromBase64() error = %v", err)
	}
	cipher, err := crypto.New(key)
	if err != nil {
		t.Fatalf("crypto.New() error = %v", err)
	}
	store := credential.NewMemoryStore(cipher)

	registry, err := provider.NewRegistry(provider.NewStatic(credential.ProviderGCal))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	tokens := token.NewService(store, registry)

	return server.NewServerContext(context.Background(), &config.Config{}, tokens)
}

func TestRegisterCalendarTools(t *testing.T) {
	sc := newTestServerContext(t)
	defer sc.Shutdown()

	s := mcpserver.NewMCPServer("test", "0.0.0")
	if err := RegisterCalendarTools(s, sc); err != nil {
		t.Fatalf("RegisterCalendarTools() error = %v", err)
	}
}

func TestFormatEvent(t *testing.T) {
	event := calendar.EventSummary{
		ID:      "evt-1",
		Summary: "Planning",
		Start:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		End:     time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
		Attendees: []calendar.AttendeeInfo{
			{Email: "a@example.com"},
			{Email: "b@example.com"},
		},
		MeetLink: "https://meet.example/abc",
	}

	got := formatEvent(event)
	for _, want := range []string{
		"Planning",
		"ID: evt-1",
		"2026-03-02T10:00:00Z - 2026-03-02T11:00:00Z",
		"a@example.com, b@example.com",
		"https://meet.example/abc",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("formatEvent() missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Where:") {
		t.Error("formatEvent() should omit the location line when unset")
	}
}

func TestParseTimeArg(t *testing.T) {
	args := map[string]interface{}{"start": "2026-03-02T10:00:00Z"}

	got, err := parseTimeArg(args, "start")
	if err != nil {
		t.Fatalf("parseTimeArg() error = %v", err)
	}
	if want := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("parseTimeArg() = %v, want %v", got, want)
	}

	if _, err := parseTimeArg(args, "end"); err == nil {
		t.Error("parseTimeArg() should fail on a missing key")
	}
	if _, err := parseTimeArg(map[string]interface{}{"start": "tomorrow"}, "start"); err == nil {
		t.Error("parseTimeArg() should reject non-RFC3339 input")
	}
}

func TestStringArg(t *testing.T) {
	args := map[string]interface{}{"calendarId": "team", "empty": ""}

	if got := stringArg(args, "calendarId", "primary"); got != "team" {
		t.Errorf("stringArg() = %q, want team", got)
	}
	if got := stringArg(args, "empty", "primary"); got != "primary" {
		t.Errorf("stringArg() on empty value = %q, want primary", got)
	}
	if got := stringArg(args, "missing", "primary"); got != "primary" {
		t.Errorf("stringArg() on missing key = %q, want primary", got)
	}
}
