// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package stage1

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrRamdisk is returned if the initramfs root could not be captured.
	ErrRamdisk = errors.New("capture initramfs root")

	// ErrPartitions is returned if the board failed to mount its
	// partitions.
	ErrPartitions = errors.New("mount early partitions")

	// ErrRootIdentity is returned if the root could not be sampled after
	// the partitions are mounted.
	ErrRootIdentity = errors.New("sample root")

	// ErrDeviceIdentity is returned if the device identity could not be
	// read, persisted or bound.
	ErrDeviceIdentity = errors.New("device identity")

	// ErrExec is returned if the final init could not be executed.
	ErrExec = errors.New("exec init")

	// ErrPanic is returned if any phase panicked.
	ErrPanic = errors.New("panic")

	// ErrInvalidConfig is returned by [LoadConfig] for config that can not
	// be used.
	ErrInvalidConfig = errors.New("invalid config")
)

// Abort prints the fatal error to w.
//
// It is meant to be called right before the process exits. As PID 1, the
// exit makes the kernel panic, so this line is usually the last one on the
// console.
func Abort(w io.Writer, err error) {
	_, _ = fmt.Fprintln(w, "FATAL:", err)
}
