// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FSType is a file system type.
type FSType string

// Special file system types.
const (
	FSTypeCgroup2 FSType = "cgroup2"
	FSTypeDevPts  FSType = "devpts"
	FSTypeDevTmp  FSType = "devtmpfs"
	FSTypeProc    FSType = "proc"
	FSTypeSys     FSType = "sysfs"
	FSTypeTmp     FSType = "tmpfs"

	defaultDirMode = 0o755
)

// MountFlags are flags as defined by mount(2).
type MountFlags uintptr

// Commonly used [MountFlags].
const (
	MountFlagNoDev  MountFlags = unix.MS_NODEV
	MountFlagNoExec MountFlags = unix.MS_NOEXEC
	MountFlagNoSUID MountFlags = unix.MS_NOSUID
	MountFlagRdOnly MountFlags = unix.MS_RDONLY

	mountFlagsKernelFS = MountFlagNoDev | MountFlagNoExec | MountFlagNoSUID
)

// EarlyMountPoints returns the special file systems an init program running
// from an initramfs needs before anything else can work: device nodes, kernel
// interfaces and scratch space.
func EarlyMountPoints() MountPoints {
	return MountPoints{
		"/dev":           {FSType: FSTypeDevTmp, Flags: MountFlagNoSUID},
		"/dev/pts":       {FSType: FSTypeDevPts, MayFail: true},
		"/dev/shm":       {FSType: FSTypeTmp, MayFail: true},
		"/proc":          {FSType: FSTypeProc, Flags: mountFlagsKernelFS},
		"/run":           {FSType: FSTypeTmp, Flags: MountFlagNoSUID | MountFlagNoDev},
		"/sys":           {FSType: FSTypeSys, Flags: mountFlagsKernelFS},
		"/sys/fs/cgroup": {FSType: FSTypeCgroup2, MayFail: true},
		"/tmp":           {FSType: FSTypeTmp},
	}
}

// MountOptions contains parameters for a mount point.
type MountOptions struct {
	// FSType is the files system type. It must be set to an available [FSType].
	FSType FSType

	// Source is the source device to mount. Can be empty for all the special
	// file system types [FSType]s. If empty it is set to the string of the
	// type.
	Source string

	// Flags are optional mount flags as defined by mount(2).
	Flags MountFlags

	// Data are optional additional parameters that depend of the [FSType] used.
	Data string

	// MayFail marks mount points that are not available on every kernel.
	// Their failures are reported as optional.
	MayFail bool
}

// MountPoints is a collection of MountPoints.
type MountPoints map[string]MountOptions

// Mount mounts the system file system of [FSType] at the given path.
//
// If path does not exist, it is created. An error is returned if this or the
// mount syscall fails.
func Mount(path string, opts MountOptions) error {
	err := os.MkdirAll(path, defaultDirMode)
	if err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}

	return mount(path, opts.Source, string(opts.FSType), opts.Flags, opts.Data)
}

// BindMount makes the file or directory at source accessible at target as
// well.
//
// Target must exist and be of the same kind as source.
func BindMount(source, target string) error {
	return bindMount(source, target)
}
