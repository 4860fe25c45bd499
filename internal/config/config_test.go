package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// UNIFIED CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "fluid" {
		t.Errorf("expected Name=fluid, got %s", cfg.Name)
	}
	if !cfg.Compiler.Enabled {
		t.Error("expected compiler enabled by default")
	}
	if cfg.Console.Prompt == "" {
		t.Error("expected a default prompt")
	}
	assert.Contains(t, cfg.Engine.DeniedPackages, "os/exec")
	require.NoError(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Engine.Prefixes = []string{"example.com/geo", "example.com/units"}
	cfg.Compiler.OutputDir = "out"
	cfg.History.Enabled = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assert.Equal(t, []string{"example.com/geo", "example.com/units"}, loaded.Engine.Prefixes)
	assert.Equal(t, "out", loaded.Compiler.OutputDir)
	assert.True(t, loaded.History.Enabled)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Compiler, cfg.Compiler)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: [unterminated"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"compiler without dir", func(c *Config) { c.Compiler.OutputDir = "" }, "output_dir"},
		{"compiler disabled without dir", func(c *Config) {
			c.Compiler.Enabled = false
			c.Compiler.OutputDir = ""
		}, ""},
		{"history without path", func(c *Config) {
			c.History.Enabled = true
			c.History.Path = ""
		}, "history"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid logging format"},
		{"empty prefix", func(c *Config) { c.Engine.Prefixes = []string{"strings", ""} }, "empty namespace prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetCompileTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Compiler.Timeout = "250ms"
	assert.Equal(t, 250*time.Millisecond, cfg.GetCompileTimeout())

	cfg.Compiler.Timeout = "soon"
	assert.Equal(t, 10*time.Second, cfg.GetCompileTimeout())
}

func TestEngineConfig_IsDenied(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Engine.IsDenied("os/exec"))
	assert.False(t, cfg.Engine.IsDenied("strings"))
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	cfg := LoggingConfig{}
	assert.False(t, cfg.IsCategoryEnabled("invoke"), "debug mode off disables everything")

	cfg.DebugMode = true
	assert.True(t, cfg.IsCategoryEnabled("invoke"))

	cfg.Categories = map[string]bool{"invoke": false}
	assert.False(t, cfg.IsCategoryEnabled("invoke"))
	assert.True(t, cfg.IsCategoryEnabled("adapt"))
}
