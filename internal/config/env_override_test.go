package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides_Engine(t *testing.T) {
	t.Run("FLUID_PREFIXES splits on commas", func(t *testing.T) {
		t.Setenv("FLUID_PREFIXES", "example.com/geo,example.com/units")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())

		assert.Equal(t, []string{"example.com/geo", "example.com/units"}, cfg.Engine.Prefixes)
	})

	t.Run("FLUID_DENIED_PACKAGES replaces the default list", func(t *testing.T) {
		t.Setenv("FLUID_DENIED_PACKAGES", "net/http")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())

		assert.Equal(t, []string{"net/http"}, cfg.Engine.DeniedPackages)
	})

	t.Run("unset variables keep file values", func(t *testing.T) {
		cfg := &Config{Engine: EngineConfig{Prefixes: []string{"custom"}}}
		require.NoError(t, cfg.applyEnvOverrides())

		assert.Equal(t, []string{"custom"}, cfg.Engine.Prefixes)
	})
}

func TestEnvOverrides_CompilerAndHistory(t *testing.T) {
	t.Setenv("FLUID_COMPILE_DIR", "/tmp/fluid-out")
	t.Setenv("FLUID_COMPILE_ENABLED", "false")
	t.Setenv("FLUID_HISTORY_DB", "/tmp/fluid.db")

	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnvOverrides())

	assert.Equal(t, "/tmp/fluid-out", cfg.Compiler.OutputDir)
	assert.False(t, cfg.Compiler.Enabled)
	assert.Equal(t, "/tmp/fluid.db", cfg.History.Path)
}

func TestEnvOverrides_Logging(t *testing.T) {
	t.Setenv("FLUID_DEBUG", "true")
	t.Setenv("FLUID_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnvOverrides())

	assert.True(t, cfg.Logging.DebugMode)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvOverrides_InvalidBool(t *testing.T) {
	t.Setenv("FLUID_DEBUG", "maybe")

	cfg := DefaultConfig()
	err := cfg.applyEnvOverrides()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}
