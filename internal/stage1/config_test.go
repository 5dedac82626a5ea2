// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package stage1_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aibor/stageone/internal/hal"
	"github.com/aibor/stageone/internal/identity"
	"github.com/aibor/stageone/internal/stage1"
	"github.com/aibor/stageone/sysinit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullConfig = `init: /usr/lib/systemd/systemd
init_flag: --early-mounts-done
env:
  LANG: C.UTF-8
identity:
  serial_number: /proc/device-tree/serial-number
  machine_id: /run/machine-id
early:
  modules: /lib/modules/*.ko.gz
  interfaces: [lo, eth0]
partitions:
  - source: PARTLABEL=rootfs
    target: /
    fstype: ext4
    options: [ro]
  - source: /dev/mmcblk0p4
    target: /data
    fstype: ext4
staging_dir: /sysroot
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stage1.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		path        func(t *testing.T) string
		expected    func() stage1.Config
		expectedErr error
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string {
				t.Helper()
				return filepath.Join(t.TempDir(), "missing.yaml")
			},
			expected: stage1.DefaultConfig,
		},
		{
			name: "empty file",
			path: func(t *testing.T) string {
				t.Helper()
				return writeConfig(t, "")
			},
			expected: stage1.DefaultConfig,
		},
		{
			name: "full",
			path: func(t *testing.T) string {
				t.Helper()
				return writeConfig(t, fullConfig)
			},
			expected: func() stage1.Config {
				return stage1.Config{
					Init:     "/usr/lib/systemd/systemd",
					InitFlag: "--early-mounts-done",
					Env: sysinit.EnvVars{
						"PATH": "/bin",
						"LANG": "C.UTF-8",
					},
					Identity: stage1.IdentityConfig{
						SerialNumber: "/proc/device-tree/serial-number",
						MachineID:    "/run/machine-id",
					},
					Early: stage1.EarlyConfig{
						Modules:    "/lib/modules/*.ko.gz",
						Interfaces: []string{"lo", "eth0"},
					},
					Partitions: []hal.Partition{
						{
							Source:  "PARTLABEL=rootfs",
							Target:  "/",
							FSType:  "ext4",
							Options: []string{"ro"},
						},
						{
							Source: "/dev/mmcblk0p4",
							Target: "/data",
							FSType: "ext4",
						},
					},
					StagingDir: "/sysroot",
				}
			},
		},
		{
			name: "override path",
			path: func(t *testing.T) string {
				t.Helper()
				return writeConfig(t, "env:\n  PATH: /sbin:/bin\n")
			},
			expected: func() stage1.Config {
				cfg := stage1.DefaultConfig()
				cfg.Env["PATH"] = "/sbin:/bin"

				return cfg
			},
		},
		{
			name: "unknown key",
			path: func(t *testing.T) string {
				t.Helper()
				return writeConfig(t, "init: /sbin/init\nrescue_shell: true\n")
			},
			expectedErr: assert.AnError,
		},
		{
			name: "relative init",
			path: func(t *testing.T) string {
				t.Helper()
				return writeConfig(t, "init: sbin/init\n")
			},
			expectedErr: stage1.ErrInvalidConfig,
		},
		{
			name: "empty init flag",
			path: func(t *testing.T) string {
				t.Helper()
				return writeConfig(t, "init_flag: \"\"\n")
			},
			expectedErr: stage1.ErrInvalidConfig,
		},
		{
			name: "multiple roots",
			path: func(t *testing.T) string {
				t.Helper()
				return writeConfig(t, `partitions:
  - {source: /dev/sda1, target: /, fstype: ext4}
  - {source: /dev/sda2, target: /, fstype: ext4}
`)
			},
			expectedErr: hal.ErrMultipleRoots,
		},
		{
			name: "relative partition target",
			path: func(t *testing.T) string {
				t.Helper()
				return writeConfig(t, `partitions:
  - {source: /dev/sda1, target: data, fstype: ext4}
`)
			},
			expectedErr: hal.ErrInvalidPartition,
		},
		{
			name: "partition without fstype",
			path: func(t *testing.T) string {
				t.Helper()
				return writeConfig(t, `partitions:
  - {source: /dev/sda1, target: /}
`)
			},
			expectedErr: hal.ErrInvalidPartition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := stage1.LoadConfig(tt.path(t))

			switch {
			case tt.expectedErr == assert.AnError:
				require.Error(t, err)
				return
			case tt.expectedErr != nil:
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected(), cfg)
		})
	}
}

func TestConfig_Validate_Partitions(t *testing.T) {
	cfg := stage1.DefaultConfig()
	cfg.Partitions = []hal.Partition{
		{Source: "/dev/sda1", Target: "/", FSType: "ext4"},
		{Source: "/dev/sda2", Target: "data", FSType: "ext4"},
	}

	err := cfg.Validate()
	require.ErrorIs(t, err, stage1.ErrInvalidConfig)
	require.ErrorIs(t, err, hal.ErrInvalidPartition)
	assert.ErrorContains(t, err, "partition 1")
}

func TestLoadConfig_Unreadable(t *testing.T) {
	_, err := stage1.LoadConfig(t.TempDir())
	require.Error(t, err)
}

func TestConfig_BoardHAL(t *testing.T) {
	cfg := stage1.DefaultConfig()
	assert.Equal(t, hal.Default{}, cfg.BoardHAL())

	cfg.Partitions = []hal.Partition{
		{Source: "/dev/sda1", Target: "/", FSType: "ext4"},
	}
	cfg.StagingDir = "/sysroot"

	assert.Equal(t, hal.Table{
		Partitions: cfg.Partitions,
		StagingDir: "/sysroot",
	}, cfg.BoardHAL())
}

func TestConfig_EarlyMounts(t *testing.T) {
	cfg := stage1.DefaultConfig()
	cfg.Early.Modules = "/lib/modules/*.ko"
	cfg.Early.Interfaces = []string{"eth0"}

	early := cfg.EarlyMounts()

	assert.Equal(t, "/lib/modules/*.ko", early.Modules)
	assert.Equal(t, []string{"eth0"}, early.Interfaces)
	assert.Equal(t, sysinit.EarlyMountPoints(), early.MountPoints)
	assert.Equal(t, sysinit.DevSymlinks(), early.Symlinks)
}

func TestConfig_IdentityManager(t *testing.T) {
	cfg := stage1.DefaultConfig()
	cfg.Identity.Scratch = "/run/device_unique_id"

	assert.Equal(t, &identity.Manager{
		ScratchPath: "/run/device_unique_id",
	}, cfg.IdentityManager())
}

func TestAbort(t *testing.T) {
	var buf bytes.Buffer

	stage1.Abort(&buf, stage1.ErrPartitions)

	assert.Equal(t, "FATAL: mount early partitions\n", buf.String())
}
