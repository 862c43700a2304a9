package config

import (
	"fmt"
	"os"
	"strconv"

	units "github.com/docker/go-units"
)

const (
	// EnvAgentsMaxConfigSize overrides the maximum accepted config document size.
	EnvAgentsMaxConfigSize = "AGENTS_MAX_CONFIG_SIZE"

	// EnvAgentsDefaultRetries overrides the default-agent promotion retry budget.
	EnvAgentsDefaultRetries = "AGENTS_DEFAULT_RETRIES"
)

// AgentsConfig contains domain settings for agent configuration storage.
type AgentsConfig struct {
	// MaxConfigSize is the largest accepted config document, in human-readable
	// form ("256KiB", "1MB").
	MaxConfigSize string `toml:"max_config_size"`

	// DefaultRetries bounds retry attempts when concurrent writers race on the
	// per-account default-agent promotion.
	DefaultRetries int `toml:"default_retries"`
}

// MaxConfigSizeBytes parses and returns the configured size limit in bytes.
func (c *AgentsConfig) MaxConfigSizeBytes() int64 {
	size, _ := units.RAMInBytes(c.MaxConfigSize)
	return size
}

// Finalize applies defaults, loads environment overrides, and validates the agents configuration.
func (c *AgentsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *AgentsConfig) Merge(overlay *AgentsConfig) {
	if overlay.MaxConfigSize != "" {
		c.MaxConfigSize = overlay.MaxConfigSize
	}
	if overlay.DefaultRetries != 0 {
		c.DefaultRetries = overlay.DefaultRetries
	}
}

func (c *AgentsConfig) loadDefaults() {
	if c.MaxConfigSize == "" {
		c.MaxConfigSize = "256KiB"
	}
	if c.DefaultRetries == 0 {
		c.DefaultRetries = 3
	}
}

func (c *AgentsConfig) loadEnv() {
	if v := os.Getenv(EnvAgentsMaxConfigSize); v != "" {
		c.MaxConfigSize = v
	}
	if v := os.Getenv(EnvAgentsDefaultRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DefaultRetries = n
		}
	}
}

func (c *AgentsConfig) validate() error {
	size, err := units.RAMInBytes(c.MaxConfigSize)
	if err != nil {
		return fmt.Errorf("invalid max_config_size: %w", err)
	}
	if size < 1 {
		return fmt.Errorf("max_config_size must be positive")
	}
	if c.DefaultRetries < 1 {
		return fmt.Errorf("default_retries must be positive")
	}
	return nil
}
