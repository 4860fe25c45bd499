package config

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level" json:"level,omitempty" env:"FLUID_LOG_LEVEL"`       // debug, info, warn, error
	Format     string          `yaml:"format" json:"format,omitempty" env:"FLUID_LOG_FORMAT"`    // json, text
	File       string          `yaml:"file" json:"file,omitempty" env:"FLUID_LOG_FILE"`          // empty = stderr
	DebugMode  bool            `yaml:"debug_mode" json:"debug_mode,omitempty" env:"FLUID_DEBUG"` // Master toggle - false = no logging
	Categories map[string]bool `yaml:"categories" json:"categories,omitempty"`                   // Per-category toggles
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Returns false if debug_mode is false.
// Returns true if debug_mode is true and category is enabled (or not specified).
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	if c.Categories == nil {
		return true // All enabled by default in debug mode
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true // Enable by default if not specified
	}
	return enabled
}
