// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import (
	"io"
	"io/fs"
	"time"
)

// emptyFile is a regular [fs.File] without content.
type emptyFile struct {
	name string
}

var _ fs.File = emptyFile{}

func (f emptyFile) Stat() (fs.FileInfo, error) {
	return emptyFileInfo(f), nil
}

func (emptyFile) Read([]byte) (int, error) {
	return 0, io.EOF
}

func (emptyFile) Close() error {
	return nil
}

type emptyFileInfo emptyFile

func (i emptyFileInfo) Name() string { return i.name }
func (emptyFileInfo) Size() int64 { return 0 }
func (emptyFileInfo) Mode() fs.FileMode { return 0 }
func (emptyFileInfo) ModTime() time.Time { return time.Time{} }
func (emptyFileInfo) IsDir() bool { return false }
func (emptyFileInfo) Sys() any { return nil }
