package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/graviton-studio/logos-I/internal/credential"
)

func writeProvidersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "providers.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadProviders_Defaults(t *testing.T) {
	specs, err := LoadProviders("")
	if err != nil {
		t.Fatalf("LoadProviders() error = %v", err)
	}

	byKey := make(map[string]ProviderSpec, len(specs))
	for _, spec := range specs {
		byKey[spec.Key] = spec
	}

	for _, key := range []string{
		credential.ProviderGCal, credential.ProviderGmail, credential.ProviderGSheets,
		credential.ProviderGDrive, credential.ProviderSlack, credential.ProviderAirtable,
		credential.ProviderExa,
	} {
		if _, ok := byKey[key]; !ok {
			t.Errorf("default providers missing %q", key)
		}
	}

	if !byKey[credential.ProviderGCal].Refreshable {
		t.Error("gcal should be refreshable")
	}
	if byKey[credential.ProviderSlack].Refreshable {
		t.Error("slack should not be refreshable")
	}
}

func TestLoadProviders_FromFile(t *testing.T) {
	path := writeProvidersFile(t, `
providers:
  - key: gcal
    refreshable: true
    token_url: https://example.test/token
    scopes:
      - https://www.googleapis.com/auth/calendar.readonly
  - key: slack
`)

	specs, err := LoadProviders(path)
	if err != nil {
		t.Fatalf("LoadProviders() error = %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("len(specs) = %d, want 2", len(specs))
	}
	if specs[0].TokenURL != "https://example.test/token" {
		t.Errorf("TokenURL = %q, want override", specs[0].TokenURL)
	}
	if len(specs[0].Scopes) != 1 {
		t.Errorf("Scopes = %v, want 1 entry", specs[0].Scopes)
	}
}

func TestLoadProviders_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty list", "providers: []", "no providers"},
		{"missing key", "providers:\n  - refreshable: true", "no key"},
		{"duplicate key", "providers:\n  - key: slack\n  - key: slack", "twice"},
		{"not yaml", "{{{", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeProvidersFile(t, tt.content)
			_, err := LoadProviders(path)
			if err == nil {
				t.Fatal("LoadProviders() should fail")
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadProviders_MissingFile(t *testing.T) {
	if _, err := LoadProviders(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadProviders() with missing file should fail")
	}
}
