package sheets_tools

import (
	"context"
	"reflect"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"

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

	registry, err := provider.NewRegistry(provider.NewStatic(credential.ProviderGSheets))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	tokens := token.NewService(store, registry)

	return server.NewServerContext(context.Background(), &config.Config{}, tokens)
}

func TestRegisterSheetsTools(t *testing.T) {
	sc := newTestServerContext(t)
	defer sc.Shutdown()

	s := mcpserver.NewMCPServer("test", "0.0.0")
	if err := RegisterSheetsTools(s, sc); err != nil {
		t.Fatalf("RegisterSheetsTools() error = %v", err)
	}
}

func TestParseValues_JSONString(t *testing.T) {
	got, err := parseValues(`[["Name","Total"],["Q1",42]]`)
	if err != nil {
		t.Fatalf("parseValues() error = %v", err)
	}

	want := [][]interface{}{
		{"Name", "Total"},
		{"Q1", float64(42)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseValues() = %v, want %v", got, want)
	}
}

func TestParseValues_DecodedArray(t *testing.T) {
	raw := []interface{}{
		[]interface{}{"a", "b"},
		[]interface{}{float64(1), float64(2)},
	}

	got, err := parseValues(raw)
	if err != nil {
		t.Fatalf("parseValues() error = %v", err)
	}
	if len(got) != 2 || got[0][0] != "a" {
		t.Errorf("parseValues() = %v", got)
	}
}

func TestParseValues_Invalid(t *testing.T) {
	for _, raw := range []interface{}{
		nil,
		"",
		"not json",
		`{"a":1}`,
		[]interface{}{"flat", "row"},
	} {
		if _, err := parseValues(raw); err == nil {
			t.Errorf("parseValues(%v) should fail", raw)
		}
	}
}
