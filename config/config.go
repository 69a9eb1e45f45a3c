package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	coretypes "github.com/projecteru2/core/types"
)

// Config holds global guestops configuration.
type Config struct {
	// RootDir is the base directory for persistent data (guest index).
	RootDir string `json:"root_dir"`
	// RunDir holds runtime state: per-guest channel locks.
	RunDir string `json:"run_dir"`

	// PollIntervalSeconds is the delay between process-table polls while
	// waiting for an exit code.
	PollIntervalSeconds int `json:"poll_interval_seconds"`
	// ExitCodeTimeoutSeconds bounds GetProcessExitCode by default.
	ExitCodeTimeoutSeconds int `json:"exit_code_timeout_seconds"`
	// ArchiveTimeoutSeconds bounds archive/extract guest commands, which
	// can legitimately run for minutes on large trees.
	ArchiveTimeoutSeconds int `json:"archive_timeout_seconds"`

	// Log configuration, uses eru core's ServerLogConfig.
	Log coretypes.ServerLogConfig `json:"log"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RootDir:                "/var/lib/guestops",
		RunDir:                 "/run/guestops",
		PollIntervalSeconds:    1,
		ExitCodeTimeoutSeconds: 60,
		ArchiveTimeoutSeconds:  600,
		Log: coretypes.ServerLogConfig{
			Level:      "info",
			MaxSize:    500,
			MaxAge:     28,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from file, falling back to defaults.
func LoadConfig(path string) (*Config, error) {
	conf := DefaultConfig()
	if path == "" {
		return conf, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // config path from CLI flag
	if err != nil {
		if os.IsNotExist(err) {
			return conf, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	conf.ApplyDefaults()
	return conf, nil
}

// ApplyDefaults fills zero or negative durations with the defaults.
func (c *Config) ApplyDefaults() {
	if c.PollIntervalSeconds <= 0 {
		c.PollIntervalSeconds = 1
	}
	if c.ExitCodeTimeoutSeconds <= 0 {
		c.ExitCodeTimeoutSeconds = 60 //nolint:mnd
	}
	if c.ArchiveTimeoutSeconds <= 0 {
		c.ArchiveTimeoutSeconds = 600 //nolint:mnd
	}
}

// IndexPath returns the guest index data file.
func (c *Config) IndexPath() string {
	return filepath.Join(c.RootDir, "db", "guests.json")
}

// IndexLockPath returns the flock path protecting the guest index.
func (c *Config) IndexLockPath() string {
	return filepath.Join(c.RootDir, "db", "guests.lock")
}

// GuestLockPath returns the flock path serializing agent calls to one guest.
func (c *Config) GuestLockPath(guestID string) string {
	return filepath.Join(c.RunDir, "guest-"+guestID+".lock")
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// ExitCodeTimeout returns the default exit-code wait as a duration.
func (c *Config) ExitCodeTimeout() time.Duration {
	return time.Duration(c.ExitCodeTimeoutSeconds) * time.Second
}

// ArchiveTimeout returns the archive-command wait as a duration.
func (c *Config) ArchiveTimeout() time.Duration {
	return time.Duration(c.ArchiveTimeoutSeconds) * time.Second
}
