// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sysinit provides the low level building blocks of an init program
// running from an initramfs: mounting the special virtual file systems,
// setting up the process environment, creating well-known symbolic links,
// loading kernel modules and bringing network links up.
//
// [EarlyMounts] bundles these into the early mount phase of a boot, which
// only reports problems as diagnostics and never aborts.
package sysinit
