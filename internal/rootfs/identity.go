// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rootfs

import (
	"fmt"
	"strconv"

	"golang.org/x/sys/unix"
)

// Identity identifies the device backing a path at the time it was sampled.
//
// It is only meaningful for comparison with another Identity.
type Identity uint64

func (i Identity) String() string {
	return strconv.FormatUint(uint64(i), 10)
}

// Sample returns the [Identity] of the device backing the given path.
func Sample(path string) (Identity, error) {
	var stat unix.Stat_t

	err := unix.Stat(path, &stat)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}

	return Identity(stat.Dev), nil
}

// Moved returns true if the root identities sampled before and after
// mounting partitions differ, so the root now resolves to another device.
func Moved(orig, current Identity) bool {
	return orig != current
}
