// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import "errors"

// ErrNotPidOne is returned if the process is expected to be run as PID 1 but
// is not.
var ErrNotPidOne = errors.New("process does not have ID 1")
