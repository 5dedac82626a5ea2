// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package identity establishes the machine identity of the device during
// boot.
//
// The unique serial number the firmware exposes is copied into a scratch file
// which is then bind mounted onto the machine ID path userspace reads. The
// identity is read exactly once per boot and never altered.
package identity
