// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package hal

import (
	"errors"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const mountPointMode = 0o755

// mounter is the set of syscalls [Table] needs.
type mounter interface {
	MkdirAll(path string) error
	Mount(source, target, fsType string, flags uintptr, data string) error
	Move(source, target string) error
	IsMountPoint(path string) (bool, error)
	Chdir(dir string) error
	Chroot(dir string) error
}

type unixMounter struct{}

func (unixMounter) MkdirAll(path string) error {
	return os.MkdirAll(path, mountPointMode)
}

func (unixMounter) Mount(source, target, fsType string, flags uintptr, data string) error {
	return unix.Mount(source, target, fsType, flags, data)
}

func (unixMounter) Move(source, target string) error {
	return unix.Mount(source, target, "", unix.MS_MOVE, "")
}

// IsMountPoint returns true if path is on another device than its parent.
// It does not detect bind mounts within the same file system.
func (unixMounter) IsMountPoint(path string) (bool, error) {
	var stat, parentStat unix.Stat_t

	err := unix.Lstat(path, &stat)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	err = unix.Stat(filepath.Dir(path), &parentStat)
	if err != nil {
		return false, err
	}

	return stat.Dev != parentStat.Dev, nil
}

func (unixMounter) Chdir(dir string) error {
	return unix.Chdir(dir)
}

func (unixMounter) Chroot(dir string) error {
	return unix.Chroot(dir)
}
