// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package identity

import "errors"

var (
	// ErrEmptyUniqueID is returned if the hardware descriptor exists but
	// does not contain any data.
	ErrEmptyUniqueID = errors.New("device unique id is empty")

	// ErrIdentityMismatch is returned if the persisted identity does not read
	// back byte identical.
	ErrIdentityMismatch = errors.New("persisted identity does not match")
)
