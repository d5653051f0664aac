// Copyright 2026 The Memfuse Authors
// SPDX-License-Identifier: Apache-2.0

// Package memfsconfig provides configuration loading for the memfuse
// daemon and CLI.
//
// Configuration is loaded from a single file specified by:
//   - MEMFUSE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This keeps startup
// deterministic and auditable: the set of files that determine
// behavior is exactly the one file named on the command line or in
// the environment.
package memfsconfig

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LogLevel names one of the supported log/slog levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Config is the full configuration for a memfused instance.
type Config struct {
	// MountPoint is the directory to mount the filesystem at. Must
	// already exist.
	MountPoint string `yaml:"mount_point"`

	// AllowOther permits users other than the mount owner to access
	// the filesystem, mirroring the FUSE "allow_other" option.
	AllowOther bool `yaml:"allow_other"`

	// UnmountTimeoutSeconds bounds how long a graceful unmount waits
	// before falling back to a lazy (detached) unmount. Zero uses
	// mount.DefaultUnmountTimeout.
	UnmountTimeoutSeconds int `yaml:"unmount_timeout_seconds"`

	// SeedManifest, if set, is the path to a JSONC seed manifest
	// (lib/vfs/seed) applied to the engine before the mount is
	// served.
	SeedManifest string `yaml:"seed_manifest,omitempty"`

	// LogLevel controls the daemon's structured logging verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// Default returns the configuration used as a base before loading the
// config file. These exist to give every field a sensible zero value,
// not as a fallback in place of a config file — MountPoint has no
// usable default and must be set explicitly.
func Default() *Config {
	return &Config{
		AllowOther:            false,
		UnmountTimeoutSeconds: 5,
		LogLevel:              LogLevelInfo,
	}
}

// Load loads configuration from the MEMFUSE_CONFIG environment
// variable. There is no fallback: if MEMFUSE_CONFIG is unset, this
// fails and the caller should fall back to a --config flag instead.
func Load() (*Config, error) {
	path := os.Getenv("MEMFUSE_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("MEMFUSE_CONFIG environment variable not set; " +
			"set it to the path of your memfuse.yaml config file, or use --config")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MountPoint == "" {
		return fmt.Errorf("mount_point is required")
	}
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	if c.UnmountTimeoutSeconds < 0 {
		return fmt.Errorf("unmount_timeout_seconds must not be negative")
	}
	return nil
}

// SlogLevel converts LogLevel to the equivalent log/slog level.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// UnmountTimeout returns the configured unmount timeout as a
// time.Duration.
func (c *Config) UnmountTimeout() time.Duration {
	return time.Duration(c.UnmountTimeoutSeconds) * time.Second
}
