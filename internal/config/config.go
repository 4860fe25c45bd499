package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all fluid configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Namespace search and access policy
	Engine EngineConfig `yaml:"engine"`

	// Source compilation
	Compiler CompilerConfig `yaml:"compiler"`

	// Interactive console
	Console ConsoleConfig `yaml:"console"`

	// Command history store
	History HistoryConfig `yaml:"history"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig configures type resolution.
type EngineConfig struct {
	// Prefixes are searched, in order, after the built-in defaults.
	Prefixes []string `yaml:"prefixes" env:"FLUID_PREFIXES" envSeparator:","`

	// DeniedPackages resolve normally but refuse every call.
	DeniedPackages []string `yaml:"denied_packages" env:"FLUID_DENIED_PACKAGES" envSeparator:","`
}

// CompilerConfig configures the source compiler.
type CompilerConfig struct {
	Enabled   bool   `yaml:"enabled" env:"FLUID_COMPILE_ENABLED"`
	OutputDir string `yaml:"output_dir" env:"FLUID_COMPILE_DIR"`
	Timeout   string `yaml:"timeout"`
}

// ConsoleConfig configures the interactive console.
type ConsoleConfig struct {
	Prompt string `yaml:"prompt"`
}

// HistoryConfig configures the command history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" env:"FLUID_HISTORY_DB"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "fluid",
		Version: "0.3.0",

		Engine: EngineConfig{
			Prefixes:       []string{},
			DeniedPackages: []string{"os/exec", "syscall", "unsafe", "plugin"},
		},

		Compiler: CompilerConfig{
			Enabled:   true,
			OutputDir: "compiled",
			Timeout:   "10s",
		},

		Console: ConsoleConfig{
			Prompt: "fluid:~$ ",
		},

		History: HistoryConfig{
			Enabled: false,
			Path:    ".fluid/history.db",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment variables override both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// GetCompileTimeout returns the per-package compile check timeout.
func (c *Config) GetCompileTimeout() time.Duration {
	d, err := time.ParseDuration(c.Compiler.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ValidLogFormats lists the accepted logging formats.
var ValidLogFormats = []string{"text", "json"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Compiler.Enabled && c.Compiler.OutputDir == "" {
		return fmt.Errorf("compiler enabled but no output_dir configured")
	}
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history enabled but no path configured")
	}

	validFormat := false
	for _, f := range ValidLogFormats {
		if c.Logging.Format == f {
			validFormat = true
			break
		}
	}
	if !validFormat {
		return fmt.Errorf("invalid logging format: %s (valid: %v)", c.Logging.Format, ValidLogFormats)
	}

	for _, p := range c.Engine.Prefixes {
		if p == "" {
			return fmt.Errorf("empty namespace prefix in engine.prefixes")
		}
	}
	return nil
}

// IsDenied reports whether calls into pkgPath are refused.
func (c *EngineConfig) IsDenied(pkgPath string) bool {
	for _, d := range c.DeniedPackages {
		if d == pkgPath {
			return true
		}
	}
	return false
}
