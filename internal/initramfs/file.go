// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import (
	"fmt"
	"path/filepath"
	"strings"
)

// File is an additional file copied into the archive.
type File struct {
	// Source is the path of the file on the build host.
	Source string

	// Path is the path in the archive, relative to its root.
	Path string
}

// ParseFile parses a file specification of the form "source=path". If path
// is omitted, the file is placed at the same absolute path as source.
func ParseFile(spec string) (File, error) {
	source, path, found := strings.Cut(spec, "=")
	if source == "" {
		return File{}, fmt.Errorf("%w: %q: empty source", ErrInvalidFile, spec)
	}

	if !found {
		if !filepath.IsAbs(source) {
			return File{}, fmt.Errorf("%w: %q: relative source needs a path", ErrInvalidFile, spec)
		}

		path = source
	}

	archivePath, err := cleanPath(path)
	if err != nil {
		return File{}, fmt.Errorf("%w: %q: %w", ErrInvalidFile, spec, err)
	}

	return File{Source: source, Path: archivePath}, nil
}

// cleanPath returns the path relative to the archive root.
func cleanPath(path string) (string, error) {
	cleaned := strings.TrimPrefix(filepath.Clean("/"+path), "/")
	if cleaned == "" {
		return "", fmt.Errorf("path %q is the archive root", path)
	}

	return cleaned, nil
}
