// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package rootfs tracks whether the root directory of the process moved from
// the initramfs onto real storage during boot, and reclaims the memory of the
// initramfs once it is no longer the root.
//
// The initramfs root must be captured with [OpenRamdisk] and [Sample] before
// anything is mounted. Once partitions are mounted, the root is sampled
// again and both [Identity] values are given to [Detect].
package rootfs
