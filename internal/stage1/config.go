// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package stage1

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aibor/stageone/internal/hal"
	"github.com/aibor/stageone/internal/identity"
	"github.com/aibor/stageone/sysinit"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the config is read from in the initramfs.
const DefaultConfigPath = "/etc/stage1.yaml"

// Default values of [Config].
const (
	DefaultInit     = "/sbin/init"
	DefaultInitFlag = "-n"
	DefaultPath     = "/bin"
)

// IdentityConfig overrides the paths of the [identity.Manager].
type IdentityConfig struct {
	SerialNumber string `yaml:"serial_number"`
	Scratch      string `yaml:"scratch"`
	MachineID    string `yaml:"machine_id"`
}

// EarlyConfig configures the early setup on top of the default mounts and
// symlinks.
type EarlyConfig struct {
	// Modules is a glob pattern of kernel modules to load.
	Modules string `yaml:"modules"`

	// Interfaces are the network links to bring up.
	Interfaces []string `yaml:"interfaces"`
}

// Config is the configuration of the boot.
type Config struct {
	// Init is the final init that is executed at the end.
	Init string `yaml:"init"`

	// InitFlag is the only argument passed to Init. It tells the final init
	// that early mounts are done already.
	InitFlag string `yaml:"init_flag"`

	// Env is set before anything else runs. Entries from the config file
	// are merged into the defaults.
	Env sysinit.EnvVars `yaml:"env"`

	Identity IdentityConfig `yaml:"identity"`

	Early EarlyConfig `yaml:"early"`

	// Partitions are mounted by the [hal.Table] board. Without any, the
	// [hal.Default] board is used.
	Partitions []hal.Partition `yaml:"partitions"`

	// StagingDir is where a new root partition is mounted before it is
	// switched to.
	StagingDir string `yaml:"staging_dir"`
}

// DefaultConfig returns the [Config] used if no config file is present.
func DefaultConfig() Config {
	return Config{
		Init:     DefaultInit,
		InitFlag: DefaultInitFlag,
		Env: sysinit.EnvVars{
			"PATH": DefaultPath,
		},
		Early: EarlyConfig{
			Interfaces: sysinit.DefaultEarlyMounts().Interfaces,
		},
	}
}

// LoadConfig reads the config file at path on top of [DefaultConfig].
//
// A missing or empty file results in the default config. Unknown keys are
// rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return cfg, fmt.Errorf("read config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	err = decoder.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	err = cfg.Validate()
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks that the config can be used for booting.
func (c Config) Validate() error {
	if !filepath.IsAbs(c.Init) {
		return fmt.Errorf("%w: init path %q not absolute", ErrInvalidConfig, c.Init)
	}

	if c.InitFlag == "" {
		return fmt.Errorf("%w: init flag empty", ErrInvalidConfig)
	}

	roots := 0

	for idx, partition := range c.Partitions {
		err := partition.Validate()
		if err != nil {
			return fmt.Errorf("%w: partition %d: %w", ErrInvalidConfig, idx, err)
		}

		if partition.IsRoot() {
			roots++
		}
	}

	if roots > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, hal.ErrMultipleRoots)
	}

	return nil
}

// EarlyMounts returns the early setup for this config.
func (c Config) EarlyMounts() sysinit.EarlyMounts {
	early := sysinit.DefaultEarlyMounts()
	early.Modules = c.Early.Modules
	early.Interfaces = c.Early.Interfaces

	return early
}

// BoardHAL returns the board that mounts the configured partitions.
func (c Config) BoardHAL() hal.BoardHAL {
	if len(c.Partitions) == 0 {
		return hal.Default{}
	}

	return hal.Table{
		Partitions: c.Partitions,
		StagingDir: c.StagingDir,
	}
}

// IdentityManager returns the device identity manager for this config.
func (c Config) IdentityManager() *identity.Manager {
	return &identity.Manager{
		SerialNumberPath: c.Identity.SerialNumber,
		ScratchPath:      c.Identity.Scratch,
		MachineIDPath:    c.Identity.MachineID,
	}
}
