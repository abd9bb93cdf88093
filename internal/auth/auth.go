// Package auth resolves provider credentials. Keys live in a 0600
// credentials file under the config directory; the OPENAI_API_KEY /
// OPENAI_BASE_URL environment pair acts as a fallback (or, with --env,
// an override) so the client works against any compatible endpoint
// without configuration.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/permacommons/chabeau/internal/config"
	"github.com/permacommons/chabeau/internal/provider"
)

// Environment fallback variables.
const (
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvBaseURL = "OPENAI_BASE_URL"
)

// Typed resolution failures; main maps these to exit messages.
var (
	ErrNoCredentials    = errors.New("no credentials found")
	ErrProviderNotFound = errors.New("provider not found")
)

// Credentials is what the core needs to talk to a provider.
type Credentials struct {
	APIKey      string
	BaseURL     string
	ProviderID  string
	DisplayName string
	Headers     map[string]string
}

// Options selects how to resolve.
type Options struct {
	// Provider is the explicit --provider flag; empty means the config's
	// default provider, then the env fallback.
	Provider string
	// ForceEnv skips stored credentials entirely (--env).
	ForceEnv bool
}

// Resolve picks a provider and its key.
func Resolve(cfg *config.Config, opts Options) (Credentials, error) {
	if opts.ForceEnv {
		return fromEnv()
	}

	id := opts.Provider
	if id == "" {
		id = cfg.DefaultProvider
	}
	if id == "" {
		// No provider anywhere: env fallback is the last resort.
		if creds, err := fromEnv(); err == nil {
			return creds, nil
		}
		return Credentials{}, fmt.Errorf("%w: set default_provider or OPENAI_API_KEY", ErrNoCredentials)
	}

	desc, ok := provider.Lookup(id)
	if !ok {
		if custom, found := lookupCustom(cfg, id); found {
			desc = custom
		} else {
			return Credentials{}, fmt.Errorf("%w: %s", ErrProviderNotFound, id)
		}
	}

	key, err := StoredKey(desc.ID)
	if err != nil {
		return Credentials{}, err
	}
	if key == "" {
		if envKey := os.Getenv(desc.KeyEnv); envKey != "" {
			key = envKey
		}
	}
	if key == "" {
		return Credentials{}, fmt.Errorf("%w for provider %s (set %s or run with --env)",
			ErrNoCredentials, desc.ID, nonEmpty(desc.KeyEnv, EnvAPIKey))
	}

	return Credentials{
		APIKey:      key,
		BaseURL:     desc.BaseURL,
		ProviderID:  desc.ID,
		DisplayName: desc.DisplayName,
		Headers:     desc.Headers,
	}, nil
}

func lookupCustom(cfg *config.Config, id string) (provider.Descriptor, bool) {
	for _, p := range cfg.Providers {
		if p.ID == id {
			return provider.Custom(p.ID, p.DisplayName, p.BaseURL), true
		}
	}
	return provider.Descriptor{}, false
}

func fromEnv() (Credentials, error) {
	key := os.Getenv(EnvAPIKey)
	if key == "" {
		return Credentials{}, fmt.Errorf("%w: %s is not set", ErrNoCredentials, EnvAPIKey)
	}
	base := os.Getenv(EnvBaseURL)
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	return Credentials{
		APIKey:      key,
		BaseURL:     base,
		ProviderID:  "env",
		DisplayName: "OpenAI-compatible (env)",
	}, nil
}

func nonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// ---------------------------------------------------------------------------
// Credential store
// ---------------------------------------------------------------------------

type credentialFile struct {
	Keys map[string]string `toml:"keys"`
}

func credentialsPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials.toml"), nil
}

// StoredKey returns the stored API key for a provider, or "".
func StoredKey(providerID string) (string, error) {
	path, err := credentialsPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read credentials: %w", err)
	}
	var f credentialFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("parse credentials: %w", err)
	}
	return f.Keys[providerID], nil
}

// StoreKey saves an API key for a provider. The file is created 0600.
func StoreKey(providerID, key string) error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f := credentialFile{Keys: map[string]string{}}
	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &f)
		if f.Keys == nil {
			f.Keys = map[string]string{}
		}
	}
	f.Keys[providerID] = key

	data, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".credentials.tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
