// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package hal contains the board abstraction for mounting the persistent
// storage partitions during early boot.
//
// The boot sequence only depends on [BoardHAL]. [Default] is used for boards
// without early partitions, [Table] for boards that describe their
// partitions in the boot configuration.
package hal
