package search_tools

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/graviton-studio/logos-I/internal/config"
	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/crypto"
	"github.com/graviton-studio/logos-I/internal/exa"
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

	registry, err := provider.NewRegistry(provider.NewStatic(credential.ProviderExa))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	tokens := token.NewService(store, registry)

	return server.NewServerContext(context.Background(), &config.Config{}, tokens)
}

func TestRegisterSearchTools(t *testing.T) {
	sc := newTestServerContext(t)
	defer sc.Shutdown()

	s := mcpserver.NewMCPServer("test", "0.0.0")
	if err := RegisterSearchTools(s, sc); err != nil {
		t.Fatalf("RegisterSearchTools() error = %v", err)
	}
}

func TestHandleSearch_NotConnected(t *testing.T) {
	sc := newTestServerContext(t)
	defer sc.Shutdown()

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "web_search",
			Arguments: map[string]interface{}{"userId": "u1", "query": "golang"},
		},
	}

	result, err := handleSearch(context.Background(), request, sc)
	if err != nil {
		t.Fatalf("handleSearch() error = %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("handleSearch() should return an error result for an unconnected user")
	}
}

func TestFormatResults(t *testing.T) {
	results := []exa.Result{
		{Title: "Go Blog", URL: "https://go.dev/blog", PublishedDate: "2026-01-15"},
		{URL: "https://example.com/untitled", Text: "page text"},
	}

	got := formatResults(results)
	for _, want := range []string{
		"2 result(s)",
		"Go Blog",
		"Published: 2026-01-15",
		// Untitled results fall back to the URL.
		"2. https://example.com/untitled",
		"page text",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("formatResults() missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatResults_TruncatesText(t *testing.T) {
	long := strings.Repeat("x", textLimit+100)
	got := formatResults([]exa.Result{{URL: "https://example.com", Text: long}})

	if !strings.Contains(got, "[truncated]") {
		t.Error("formatResults() should truncate long page text")
	}
	if strings.Contains(got, long) {
		t.Error("formatResults() should not include the full text")
	}
}
