// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

// IsPidOne returns true if the running process has PID 1.
func IsPidOne() bool {
	return getpid() == 1
}

// SetUmask sets the process wide file creation mask and returns the previous
// one.
func SetUmask(mask int) int {
	return umask(mask)
}
