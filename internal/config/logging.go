package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	// EnvLogLevel overrides the minimum log level.
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogFormat overrides the log output format.
	EnvLogFormat = "LOG_FORMAT"
)

// Log output formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// LogLevel represents a named minimum logging level.
type LogLevel string

// ToSlogLevel converts the configured level name to a slog.Level.
func (l LogLevel) ToSlogLevel() slog.Level {
	switch strings.ToLower(string(l)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	Level  LogLevel `toml:"level"`
	Format string   `toml:"format"`
}

// Finalize applies defaults, loads environment overrides, and validates the logging configuration.
func (c *LoggingConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *LoggingConfig) Merge(overlay *LoggingConfig) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
}

func (c *LoggingConfig) loadDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = LogFormatJSON
	}
}

func (c *LoggingConfig) loadEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Level = LogLevel(v)
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Format = v
	}
}

func (c *LoggingConfig) validate() error {
	switch strings.ToLower(string(c.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid level: %s", c.Level)
	}
	switch c.Format {
	case LogFormatJSON, LogFormatText:
	default:
		return fmt.Errorf("invalid format: %s", c.Format)
	}
	return nil
}
