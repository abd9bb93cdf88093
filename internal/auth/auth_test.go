package auth

import (
	"errors"
	"testing"

	"github.com/permacommons/chabeau/internal/config"
)

func setup(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvConfigDir, t.TempDir())
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvBaseURL, "")
	t.Setenv("OPENROUTER_API_KEY", "")
}

func TestResolveFromStoredKey(t *testing.T) {
	setup(t)
	if err := StoreKey("openai", "sk-stored"); err != nil {
		t.Fatalf("StoreKey: %v", err)
	}

	creds, err := Resolve(&config.Config{}, Options{Provider: "openai"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if creds.APIKey != "sk-stored" || creds.ProviderID != "openai" {
		t.Errorf("creds: %+v", creds)
	}
	if creds.BaseURL == "" {
		t.Error("base URL should come from the provider descriptor")
	}
}

func TestResolveEnvFallback(t *testing.T) {
	setup(t)
	t.Setenv(EnvAPIKey, "sk-env")
	t.Setenv(EnvBaseURL, "http://localhost:1234/v1")

	creds, err := Resolve(&config.Config{}, Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if creds.APIKey != "sk-env" || creds.BaseURL != "http://localhost:1234/v1" {
		t.Errorf("env creds: %+v", creds)
	}
}

func TestResolveForceEnvIgnoresStored(t *testing.T) {
	setup(t)
	if err := StoreKey("openai", "sk-stored"); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvAPIKey, "sk-env")

	creds, err := Resolve(&config.Config{DefaultProvider: "openai"}, Options{ForceEnv: true})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if creds.APIKey != "sk-env" {
		t.Errorf("--env must bypass stored keys: %+v", creds)
	}
}

func TestResolveNoCredentials(t *testing.T) {
	setup(t)
	_, err := Resolve(&config.Config{}, Options{Provider: "openai"})
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("want ErrNoCredentials, got %v", err)
	}
}

func TestResolveUnknownProvider(t *testing.T) {
	setup(t)
	_, err := Resolve(&config.Config{}, Options{Provider: "bogus"})
	if !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("want ErrProviderNotFound, got %v", err)
	}
}

func TestResolveCustomProvider(t *testing.T) {
	setup(t)
	cfg := &config.Config{
		Providers: []config.CustomProvider{
			{ID: "local", DisplayName: "Local", BaseURL: "http://localhost:8080/v1"},
		},
	}
	if err := StoreKey("local", "sk-local"); err != nil {
		t.Fatal(err)
	}
	creds, err := Resolve(cfg, Options{Provider: "local"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if creds.BaseURL != "http://localhost:8080/v1" || creds.DisplayName != "Local" {
		t.Errorf("custom provider creds: %+v", creds)
	}
}

func TestStoreKeyOverwrites(t *testing.T) {
	setup(t)
	if err := StoreKey("groq", "old"); err != nil {
		t.Fatal(err)
	}
	if err := StoreKey("groq", "new"); err != nil {
		t.Fatal(err)
	}
	key, err := StoredKey("groq")
	if err != nil || key != "new" {
		t.Errorf("key: %q err: %v", key, err)
	}
}
