// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package hal

// BoardHAL mounts the persistent storage partitions of a board.
//
// Implementations may mount the partitions beneath the current root or
// replace the root entirely. Any returned error is fatal for the boot.
type BoardHAL interface {
	MountEarlyPartitions() error
}

// Default is the [BoardHAL] of boards that do not have any partitions to
// mount early. The initramfs stays the root.
type Default struct{}

var _ BoardHAL = Default{}

// MountEarlyPartitions does nothing.
func (Default) MountEarlyPartitions() error {
	return nil
}
