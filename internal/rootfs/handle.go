// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rootfs

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ErrHandleClosed is returned if a closed [RamdiskHandle] is used.
var ErrHandleClosed = errors.New("ramdisk handle closed")

// RamdiskHandle is an open directory on the initial root file system.
//
// It keeps referring to the initramfs even after another file system has been
// moved onto "/", so it must be opened before anything is mounted.
type RamdiskHandle struct {
	file *os.File
}

// OpenRamdisk opens the directory at path, usually "/", as [RamdiskHandle].
//
// The file descriptor is closed on exec, so it does not leak into the final
// init.
func OpenRamdisk(path string) (*RamdiskHandle, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open ramdisk %s: %w", path, err)
	}

	return &RamdiskHandle{file: os.NewFile(uintptr(fd), path)}, nil
}

// Name returns the path the handle was opened with.
func (h *RamdiskHandle) Name() string {
	if h == nil || h.file == nil {
		return ""
	}

	return h.file.Name()
}

// Close closes the handle. Closing an already closed handle is a no-op.
func (h *RamdiskHandle) Close() error {
	if h == nil || h.file == nil {
		return nil
	}

	file := h.file
	h.file = nil

	err := file.Close()
	if err != nil {
		return fmt.Errorf("close ramdisk handle: %w", err)
	}

	return nil
}

func (h *RamdiskHandle) fd() (int, error) {
	if h == nil || h.file == nil {
		return -1, ErrHandleClosed
	}

	return int(h.file.Fd()), nil
}
