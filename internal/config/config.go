package config

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/permacommons/chabeau/internal/theme"
)

// ---------------------------------------------------------------------------
// Environment variables
// ---------------------------------------------------------------------------

const (
	EnvConfigDir = "CHABEAU_CONFIG_DIR" // custom config directory
	EnvColor     = "CHABEAU_COLOR"      // truecolor | 256 | 16
)

// ---------------------------------------------------------------------------
// Config schema
// ---------------------------------------------------------------------------

// Config is the persisted application configuration. The zero value is a
// usable default; booleans use pointers so "unset" is distinguishable from
// "false".
type Config struct {
	// Default provider and per-provider default models.
	DefaultProvider string            `mapstructure:"default_provider" toml:"default_provider,omitempty"`
	DefaultModels   map[string]string `mapstructure:"default_models" toml:"default_models,omitempty"`

	// Rendering toggles.
	Theme    string `mapstructure:"theme" toml:"theme,omitempty"`
	Markdown *bool  `mapstructure:"markdown" toml:"markdown,omitempty"`
	Syntax   *bool  `mapstructure:"syntax" toml:"syntax,omitempty"`

	// Roleplay.
	Personas          []Persona         `mapstructure:"personas" toml:"personas,omitempty"`
	Presets           []Preset          `mapstructure:"presets" toml:"presets,omitempty"`
	Characters        []Character       `mapstructure:"characters" toml:"characters,omitempty"`
	DefaultPersona    string            `mapstructure:"default_persona" toml:"default_persona,omitempty"`
	DefaultPreset     string            `mapstructure:"default_preset" toml:"default_preset,omitempty"`
	DefaultCharacters map[string]string `mapstructure:"default_characters" toml:"default_characters,omitempty"`

	// Custom providers and themes.
	Providers    []CustomProvider   `mapstructure:"providers" toml:"providers,omitempty"`
	CustomThemes []theme.Definition `mapstructure:"custom_themes" toml:"custom_themes,omitempty"`

	// System prompt applied when no character is active.
	SystemPrompt string `mapstructure:"system_prompt" toml:"system_prompt,omitempty"`
}

// CustomProvider is a user-defined OpenAI-compatible endpoint.
type CustomProvider struct {
	ID          string `mapstructure:"id" toml:"id"`
	DisplayName string `mapstructure:"display_name" toml:"display_name,omitempty"`
	BaseURL     string `mapstructure:"base_url" toml:"base_url"`
}

// MarkdownEnabled reports the markdown toggle with its default (on).
func (c *Config) MarkdownEnabled() bool {
	return c.Markdown == nil || *c.Markdown
}

// SyntaxEnabled reports the syntax highlighting toggle with its default (on).
func (c *Config) SyntaxEnabled() bool {
	return c.Syntax == nil || *c.Syntax
}

// DefaultModelFor returns the configured default model for a provider.
func (c *Config) DefaultModelFor(providerID string) string {
	return c.DefaultModels[providerID]
}

// SetDefaultModel records the default model for a provider.
func (c *Config) SetDefaultModel(providerID, model string) {
	if c.DefaultModels == nil {
		c.DefaultModels = map[string]string{}
	}
	c.DefaultModels[providerID] = model
}

// ---------------------------------------------------------------------------
// Load / save
// ---------------------------------------------------------------------------

// Dir returns the configuration directory, honoring CHABEAU_CONFIG_DIR.
func Dir() (string, error) {
	if custom := os.Getenv(EnvConfigDir); custom != "" {
		return custom, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "chabeau"), nil
}

// Path returns the config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file. A missing file yields the zero config.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config atomically: temp file in the same directory,
// fsync, rename.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return atomicWrite(path, data, 0o644)
}

// Mutate loads the latest on-disk config, applies f and saves atomically.
// Used for persisting picker choices so concurrent sessions don't clobber
// each other's unrelated fields.
func Mutate(f func(*Config) error) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	if err := f(cfg); err != nil {
		return err
	}
	return cfg.Save()
}

// atomicWrite replaces path via a temp file, fsync and rename.
func atomicWrite(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// AtomicWriteFile is the shared crash-safe file replace used by the log
// rewriter and code block saver.
func AtomicWriteFile(path string, data []byte) error {
	return atomicWrite(path, data, 0o644)
}
