// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rootfs

// Cleaner reclaims the initramfs after the root moved away from it.
type Cleaner interface {
	// Cleanup removes the content of the initramfs the handle refers to.
	// orig is the [Identity] of the initramfs. Cleanup takes ownership of
	// the handle.
	Cleanup(handle *RamdiskHandle, orig Identity) error
}

// Detect decides if the initramfs must be reclaimed and runs the cleaner if
// so.
//
// If both identities are equal, the initramfs is still the root: partitions
// were mounted beneath it. It stays untouched and the handle is left to the
// caller. Otherwise the cleaner is called with the handle and the original
// identity. It returns whether the cleaner ran.
func Detect(orig, current Identity, handle *RamdiskHandle, cleaner Cleaner) (bool, error) {
	if !Moved(orig, current) {
		return false, nil
	}

	return true, cleaner.Cleanup(handle, orig)
}
