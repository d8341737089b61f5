package config

import (
	"os"
	"path/filepath"
	"time"
)

// ConfigHelpers provides convenient access to global configuration
type ConfigHelpers struct {
	config *GlobalConfig
}

// NewConfigHelpers creates a new config helpers instance
func NewConfigHelpers(config *GlobalConfig) *ConfigHelpers {
	return &ConfigHelpers{config: config}
}

// RootDir returns the absolute image tree root. Without a configured
// root the working directory is used.
func (c *ConfigHelpers) RootDir() (string, error) {
	if c.config.RootDir == "" {
		return os.Getwd()
	}
	return filepath.Abs(c.config.RootDir)
}

// ReportDir returns the absolute report directory, or "" when reports
// are disabled.
func (c *ConfigHelpers) ReportDir() (string, error) {
	if c.config.ReportDir == "" {
		return "", nil
	}
	return filepath.Abs(c.config.ReportDir)
}

// LockTimeout returns how long to wait for the tree lock
func (c *ConfigHelpers) LockTimeout() time.Duration {
	d, err := c.config.LockTimeoutDuration()
	if err != nil {
		return 0
	}
	return d
}

// ShowProgress reports whether catalog builds draw a progress bar
func (c *ConfigHelpers) ShowProgress() bool {
	return c.config.Progress
}

// LogLevel returns the configured log level
func (c *ConfigHelpers) LogLevel() string {
	return c.config.Logging.Level
}
