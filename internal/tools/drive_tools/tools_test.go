package drive_tools

import (
	"context"
	"strings"
	"testing"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/graviton-studio/logos-I/internal/config"
	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/crypto"
	"github.com/graviton-studio/logos-I/internal/drive"
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

	registry, err := provider.NewRegistry(provider.NewStatic(credential.ProviderGDrive))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	tokens := token.NewService(store, registry)

	return server.NewServerContext(context.Background(), &config.Config{}, tokens)
}

func TestRegisterDriveTools(t *testing.T) {
	sc := newTestServerContext(t)
	defer sc.Shutdown()

	s := mcpserver.NewMCPServer("test", "0.0.0")
	if err := RegisterDriveTools(s, sc); err != nil {
		t.Fatalf("RegisterDriveTools() error = %v", err)
	}
}

func TestFormatFile(t *testing.T) {
	file := &drive.FileInfo{
		ID:           "f1",
		Name:         "report.pdf",
		MimeType:     "application/pdf",
		Size:         2048,
		ModifiedTime: time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC),
		WebViewLink:  "https://drive.example/f1",
	}

	got := formatFile(file)
	for _, want := range []string{
		"report.pdf",
		"ID: f1",
		"Type: application/pdf",
		"Size: 2048 bytes",
		"Modified: 2026-02-01 09:30",
		"https://drive.example/f1",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("formatFile() missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatFile_Folder(t *testing.T) {
	folder := &drive.FileInfo{
		ID:       "d1",
		Name:     "Reports",
		MimeType: drive.FolderMimeType,
	}

	got := formatFile(folder)
	if !strings.Contains(got, "Type: folder") {
		t.Errorf("formatFile() should mark folders, got:\n%s", got)
	}
	if strings.Contains(got, drive.FolderMimeType) {
		t.Errorf("formatFile() should not print the raw folder MIME type, got:\n%s", got)
	}
}
