// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rootfs

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrNotRamdisk is returned if the handle given to [Reclaimer.Cleanup] does
// not refer to a memory backed file system.
var ErrNotRamdisk = errors.New("not a ramfs or tmpfs")

const direntBufSize = 8192

// Reclaimer frees the memory of the initramfs by removing everything in it.
//
// It never crosses into other file systems: entries whose device differs from
// the initramfs, like mount points, are left alone.
type Reclaimer struct {
	// Only set in tests, where temporary directories are on arbitrary
	// file systems.
	skipFSCheck bool
}

var _ Cleaner = Reclaimer{}

// Cleanup removes all content below the given handle that is on the device
// identified by orig. The handle is closed when done.
//
// It refuses to remove anything if the handle does not refer to a ramfs or
// tmpfs. Failures to remove single entries do not stop the removal of the
// others. All failures are returned joined.
func (r Reclaimer) Cleanup(handle *RamdiskHandle, orig Identity) error {
	defer handle.Close()

	dirFd, err := handle.fd()
	if err != nil {
		return err
	}

	if !r.skipFSCheck {
		var stat unix.Statfs_t

		err := unix.Fstatfs(dirFd, &stat)
		if err != nil {
			return fmt.Errorf("statfs %s: %w", handle.Name(), err)
		}

		if !isRamdiskType(stat.Type) {
			return fmt.Errorf("%s (type %#x): %w", handle.Name(), stat.Type, ErrNotRamdisk)
		}
	}

	return removeContents(dirFd, orig)
}

func isRamdiskType[T int32 | int64 | uint32](fsType T) bool {
	switch uint32(fsType) {
	case unix.RAMFS_MAGIC, unix.TMPFS_MAGIC:
		return true
	default:
		return false
	}
}

func removeContents(dirFd int, dev Identity) error {
	names, err := readDirNames(dirFd)
	if err != nil {
		return err
	}

	var errs []error

	for _, name := range names {
		err := removeEntry(dirFd, name, dev)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func removeEntry(dirFd int, name string, dev Identity) error {
	var stat unix.Stat_t

	err := unix.Fstatat(dirFd, name, &stat, unix.AT_SYMLINK_NOFOLLOW)
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}

	if Identity(stat.Dev) != dev {
		return nil
	}

	if stat.Mode&unix.S_IFMT != unix.S_IFDIR {
		return unlinkat(dirFd, name, 0)
	}

	childFd, err := unix.Openat(dirFd, name, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}

	err = removeContents(childFd, dev)
	_ = unix.Close(childFd)

	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	return unlinkat(dirFd, name, unix.AT_REMOVEDIR)
}

func readDirNames(dirFd int) ([]string, error) {
	var names []string

	buf := make([]byte, direntBufSize)

	for {
		n, err := unix.Getdents(dirFd, buf)
		if err != nil {
			return nil, fmt.Errorf("read dir: %w", err)
		}

		if n <= 0 {
			break
		}

		// Skips "." and "..".
		_, _, names = unix.ParseDirent(buf[:n], -1, names)
	}

	return names, nil
}

func unlinkat(dirFd int, name string, flags int) error {
	err := unix.Unlinkat(dirFd, name, flags)
	if err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}

	return nil
}
