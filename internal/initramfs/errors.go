// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import "errors"

var (
	// ErrNotELFFile is returned if the file does not have an ELF magic number.
	ErrNotELFFile = errors.New("is not an ELF file")

	// ErrDynamicallyLinked is returned if the init binary requires an ELF
	// interpreter. The initramfs does not contain any libraries.
	ErrDynamicallyLinked = errors.New("dynamically linked")

	// ErrFileNotRegular is returned if the source is not a regular file.
	ErrFileNotRegular = errors.New("source is not a regular file")

	// ErrInvalidFile is returned for malformed file specifications.
	ErrInvalidFile = errors.New("invalid file")

	// ErrDuplicatePath is returned if the same archive path is used twice.
	ErrDuplicatePath = errors.New("duplicate path")
)
