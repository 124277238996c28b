package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/graviton-studio/logos-I/internal/credential"
)

// ProviderSpec describes one integration in providers.yaml.
type ProviderSpec struct {
	// Key is the provider key stored alongside credentials.
	Key string `yaml:"key"`

	// Refreshable marks providers with a live token endpoint. Google-family
	// providers refresh; Slack, Airtable, and Exa credentials are static.
	Refreshable bool `yaml:"refreshable"`

	// TokenURL overrides the provider's token endpoint. Mostly useful in
	// tests and staging setups.
	TokenURL string `yaml:"token_url,omitempty"`

	// Scopes requested during the connect flow.
	Scopes []string `yaml:"scopes,omitempty"`
}

// ProvidersFile is the YAML document shape.
type ProvidersFile struct {
	Providers []ProviderSpec `yaml:"providers"`
}

// DefaultProviders returns the built-in provider set used when no
// providers.yaml is given.
func DefaultProviders() []ProviderSpec {
	return []ProviderSpec{
		{Key: credential.ProviderGCal, Refreshable: true, Scopes: []string{
			"https://www.googleapis.com/auth/calendar",
		}},
		{Key: credential.ProviderGmail, Refreshable: true, Scopes: []string{
			"https://www.googleapis.com/auth/gmail.modify",
		}},
		{Key: credential.ProviderGSheets, Refreshable: true, Scopes: []string{
			"https://www.googleapis.com/auth/spreadsheets",
		}},
		{Key: credential.ProviderGDrive, Refreshable: true, Scopes: []string{
			"https://www.googleapis.com/auth/drive",
		}},
		{Key: credential.ProviderSlack},
		{Key: credential.ProviderAirtable},
		{Key: credential.ProviderExa},
	}
}

// LoadProviders reads provider specs from a YAML file, or returns the
// defaults when path is empty.
func LoadProviders(path string) ([]ProviderSpec, error) {
	if path == "" {
		return DefaultProviders(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading providers file: %w", err)
	}

	var file ProvidersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing providers file %s: %w", path, err)
	}
	if len(file.Providers) == 0 {
		return nil, fmt.Errorf("providers file %s lists no providers", path)
	}

	seen := make(map[string]bool, len(file.Providers))
	for _, spec := range file.Providers {
		if spec.Key == "" {
			return nil, fmt.Errorf("providers file %s contains a provider with no key", path)
		}
		if seen[spec.Key] {
			return nil, fmt.Errorf("providers file %s lists %q twice", path, spec.Key)
		}
		seen[spec.Key] = true
	}

	return file.Providers, nil
}
