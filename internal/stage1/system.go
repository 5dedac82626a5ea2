// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package stage1

import (
	"github.com/aibor/stageone/internal/rootfs"
	"github.com/aibor/stageone/sysinit"
	"golang.org/x/sys/unix"
)

// System is the process wide state [Boot] changes.
type System interface {
	// Umask sets the file mode creation mask and returns the previous one.
	Umask(mask int) int

	// Setenv sets the environment variables of the process.
	Setenv(env sysinit.EnvVars) error

	// OpenRamdisk opens the directory at path for later reclaim.
	OpenRamdisk(path string) (*rootfs.RamdiskHandle, error)

	// RootIdentity samples the device the path is on.
	RootIdentity(path string) (rootfs.Identity, error)

	// Exec replaces the process. It only returns on failure.
	Exec(path string, argv []string, envv []string) error
}

// LinuxSystem is the [System] of the running process.
type LinuxSystem struct{}

var _ System = LinuxSystem{}

func (LinuxSystem) Umask(mask int) int {
	return sysinit.SetUmask(mask)
}

func (LinuxSystem) Setenv(env sysinit.EnvVars) error {
	return sysinit.SetEnv(env)
}

func (LinuxSystem) OpenRamdisk(path string) (*rootfs.RamdiskHandle, error) {
	return rootfs.OpenRamdisk(path)
}

func (LinuxSystem) RootIdentity(path string) (rootfs.Identity, error) {
	return rootfs.Sample(path)
}

func (LinuxSystem) Exec(path string, argv []string, envv []string) error {
	return unix.Exec(path, argv, envv)
}
