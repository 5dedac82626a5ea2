// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package stage1 drives the boot from the initramfs to the final init.
//
// [Boot.Run] runs every phase exactly once in a fixed order: process setup,
// early mounts, partition mounts, device identity, initramfs reclaim and
// finally the exec of the final init. It only ever returns on failure.
package stage1
