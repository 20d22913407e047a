// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration.
type Config struct {
	// Mountpoint is the directory where the plaque filesystem is
	// mounted. Created if it does not exist.
	Mountpoint string `yaml:"mountpoint"`

	// FileName is the name of the status file inside the mountpoint.
	FileName string `yaml:"file_name"`

	// SocketPath is the Unix socket path for the control protocol.
	// Empty disables the control socket.
	SocketPath string `yaml:"socket_path"`

	// AllowOther permits other users to read the mount. Requires
	// user_allow_other in /etc/fuse.conf.
	AllowOther bool `yaml:"allow_other"`

	// Identity holds the values rendered into each report.
	Identity IdentityConfig `yaml:"identity"`
}

// IdentityConfig holds the externally adjustable report values.
type IdentityConfig struct {
	Name     string `yaml:"name"`
	Group    int    `yaml:"group"`
	Subgroup int    `yaml:"subgroup"`
}

// Default returns a Config with development defaults.
func Default() Config {
	return Config{
		Mountpoint: "/run/plaque",
		FileName:   "plaque",
		SocketPath: "/run/plaqued.sock",
	}
}

// LoadFile reads and validates the configuration at path. Fields
// absent from the file keep their Default values. Unknown keys are an
// error: a typo in the file should fail loudly, not silently fall back
// to a default.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	configuration := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&configuration); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := configuration.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &configuration, nil
}

// Validate checks the configuration for values the daemon cannot run
// with.
func (c *Config) Validate() error {
	if c.Mountpoint == "" {
		return fmt.Errorf("mountpoint must not be empty")
	}
	if c.FileName == "" {
		return fmt.Errorf("file_name must not be empty")
	}
	if strings.ContainsRune(c.FileName, '/') {
		return fmt.Errorf("file_name %q must not contain path separators", c.FileName)
	}
	if c.Identity.Group < 0 {
		return fmt.Errorf("identity.group must not be negative")
	}
	if c.Identity.Subgroup < 0 {
		return fmt.Errorf("identity.subgroup must not be negative")
	}
	return nil
}
