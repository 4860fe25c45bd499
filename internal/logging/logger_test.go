package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"fluid/internal/config"
)

func observe(t *testing.T, cfg config.LoggingConfig) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core), cfg)
	t.Cleanup(func() { SetLogger(zap.NewNop(), config.LoggingConfig{}) })
	return logs
}

// TestAllCategoriesLog tests that every category emits when debug_mode is true
func TestAllCategoriesLog(t *testing.T) {
	logs := observe(t, config.LoggingConfig{DebugMode: true})

	categories := []Category{
		CategoryBoot,
		CategoryRegistry,
		CategoryResolver,
		CategoryInvoke,
		CategoryAdapt,
		CategoryCompile,
		CategoryConsole,
		CategoryHistory,
	}

	for _, cat := range categories {
		if !IsCategoryEnabled(cat) {
			t.Errorf("Category %s should be enabled", cat)
		}
		Get(cat).Info("Test info message for %s", cat)
	}

	Boot("Convenience boot log")
	Registry("Convenience registry log")
	Resolver("Convenience resolver log")
	Invoke("Convenience invoke log")
	Adapt("Convenience adapt log")
	Compile("Convenience compile log")
	Console("Convenience console log")
	History("Convenience history log")

	if got := logs.Len(); got != 2*len(categories) {
		t.Fatalf("expected %d entries, got %d", 2*len(categories), got)
	}

	for _, cat := range categories {
		n := logs.FilterField(zap.String("category", string(cat))).Len()
		if n != 2 {
			t.Errorf("category %s: expected 2 entries, got %d", cat, n)
		}
	}
}

// TestDebugModeDisabled tests that nothing is emitted when debug_mode is false
func TestDebugModeDisabled(t *testing.T) {
	logs := observe(t, config.LoggingConfig{DebugMode: false})

	Invoke("should not appear")
	Get(CategoryAdapt).Error("nor this")

	if logs.Len() != 0 {
		t.Errorf("expected no entries with debug mode off, got %d", logs.Len())
	}
}

// TestCategoryToggle tests that a disabled category is silent while others log
func TestCategoryToggle(t *testing.T) {
	logs := observe(t, config.LoggingConfig{
		DebugMode:  true,
		Categories: map[string]bool{"invoke": false},
	})

	Invoke("silenced")
	Adapt("kept")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "kept" {
		t.Errorf("unexpected message %q", entries[0].Message)
	}
}

func TestLoggerWith(t *testing.T) {
	logs := observe(t, config.LoggingConfig{DebugMode: true})

	Get(CategoryConsole).With("session", "abc").Warn("line %d", 3)

	entries := logs.FilterField(zap.String("session", "abc")).All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "line 3" {
		t.Errorf("unexpected message %q", entries[0].Message)
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("unexpected level %s", entries[0].Level)
	}
}

// TestInitializeFileOutput tests that Initialize writes JSON lines to the configured file
func TestInitializeFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fluid.log")
	t.Cleanup(func() { SetLogger(zap.NewNop(), config.LoggingConfig{}) })

	err := Initialize(config.LoggingConfig{
		Level:     "debug",
		Format:    "json",
		File:      path,
		DebugMode: true,
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	Resolver("resolving %s", "Builder")
	Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "resolving Builder") {
		t.Errorf("log file missing message: %s", text)
	}
	if !strings.Contains(text, `"category":"resolver"`) {
		t.Errorf("log file missing category field: %s", text)
	}
}

func TestInitializeDisabledIsNop(t *testing.T) {
	t.Cleanup(func() { SetLogger(zap.NewNop(), config.LoggingConfig{}) })

	if err := Initialize(config.LoggingConfig{DebugMode: false}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if IsCategoryEnabled(CategoryBoot) {
		t.Error("expected categories disabled")
	}
}
