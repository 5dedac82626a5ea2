// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package hal

import "errors"

var (
	// ErrMultipleRoots is returned if more than one partition has the root
	// as target.
	ErrMultipleRoots = errors.New("more than one root partition")

	// ErrInvalidPartition is returned for partitions with missing or invalid
	// fields.
	ErrInvalidPartition = errors.New("invalid partition")
)
