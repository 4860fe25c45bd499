// Package logging provides config-driven categorized logging for fluid.
// Each engine subsystem logs under its own category. Logging is controlled by
// logging.debug_mode in the config file - when false, every logger is a no-op.
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fluid/internal/config"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup and wiring
	CategoryRegistry Category = "registry" // Alias/variable bindings
	CategoryResolver Category = "resolver" // Namespace search
	CategoryInvoke   Category = "invoke"   // Construction and calls
	CategoryAdapt    Category = "adapt"    // String adaptation
	CategoryCompile  Category = "compile"  // Source compilation
	CategoryConsole  Category = "console"  // Command dispatch
	CategoryHistory  Category = "history"  // Command history store
)

// Logger wraps a sugared zap logger bound to one category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	base      = zap.NewNop()
	settings  config.LoggingConfig
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
)

// Initialize builds the root logger from cfg. With debug mode off it
// installs a no-op logger.
func Initialize(cfg config.LoggingConfig) error {
	if !cfg.DebugMode {
		SetLogger(zap.NewNop(), cfg)
		return nil
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	zc.Level = level
	if cfg.File != "" {
		zc.OutputPaths = []string{cfg.File}
	} else {
		zc.OutputPaths = []string{"stderr"}
	}

	l, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	SetLogger(l, cfg)
	Boot("logging initialized (level=%s, format=%s)", level.String(), cfg.Format)
	return nil
}

// SetLogger installs l as the root logger and drops cached category loggers.
func SetLogger(l *zap.Logger, cfg config.LoggingConfig) {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	base = l
	settings = cfg
	loggers = make(map[Category]*Logger)
}

// Sync flushes the root logger.
func Sync() {
	loggersMu.RLock()
	defer loggersMu.RUnlock()
	_ = base.Sync()
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	loggersMu.RLock()
	defer loggersMu.RUnlock()
	return categoryEnabled(category)
}

func categoryEnabled(category Category) bool {
	return settings.IsCategoryEnabled(string(category))
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode or the category is disabled.
func Get(category Category) *Logger {
	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	root := base
	if !categoryEnabled(category) {
		root = zap.NewNop()
	}
	l := &Logger{
		category: category,
		sugar:    root.Sugar().With("category", string(category)),
	}
	loggers[category] = l
	return l
}

// With returns a logger carrying extra key/value fields.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(format string, args ...any) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...any) { l.sugar.Errorf(format, args...) }

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// These are no-ops if the category is disabled
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...any) { Get(CategoryBoot).Info(format, args...) }

// BootDebug logs debug to the boot category
func BootDebug(format string, args ...any) { Get(CategoryBoot).Debug(format, args...) }

// Registry logs to the registry category
func Registry(format string, args ...any) { Get(CategoryRegistry).Info(format, args...) }

// RegistryDebug logs debug to the registry category
func RegistryDebug(format string, args ...any) { Get(CategoryRegistry).Debug(format, args...) }

// Resolver logs to the resolver category
func Resolver(format string, args ...any) { Get(CategoryResolver).Info(format, args...) }

// ResolverDebug logs debug to the resolver category
func ResolverDebug(format string, args ...any) { Get(CategoryResolver).Debug(format, args...) }

// Invoke logs to the invoke category
func Invoke(format string, args ...any) { Get(CategoryInvoke).Info(format, args...) }

// InvokeDebug logs debug to the invoke category
func InvokeDebug(format string, args ...any) { Get(CategoryInvoke).Debug(format, args...) }

// Adapt logs to the adapt category
func Adapt(format string, args ...any) { Get(CategoryAdapt).Info(format, args...) }

// AdaptDebug logs debug to the adapt category
func AdaptDebug(format string, args ...any) { Get(CategoryAdapt).Debug(format, args...) }

// Compile logs to the compile category
func Compile(format string, args ...any) { Get(CategoryCompile).Info(format, args...) }

// CompileDebug logs debug to the compile category
func CompileDebug(format string, args ...any) { Get(CategoryCompile).Debug(format, args...) }

// Console logs to the console category
func Console(format string, args ...any) { Get(CategoryConsole).Info(format, args...) }

// ConsoleDebug logs debug to the console category
func ConsoleDebug(format string, args ...any) { Get(CategoryConsole).Debug(format, args...) }

// History logs to the history category
func History(format string, args ...any) { Get(CategoryHistory).Info(format, args...) }

// HistoryDebug logs debug to the history category
func HistoryDebug(format string, args ...any) { Get(CategoryHistory).Debug(format, args...) }
