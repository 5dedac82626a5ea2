// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// Paths in the archive.
const (
	// InitPath is where the kernel looks for the init of an initramfs.
	InitPath = "init"

	// ConfigPath is where stage1 reads its config from.
	ConfigPath = "etc/stage1.yaml"

	// MachineIDPath is the bind mount target of the device identity. An
	// empty file is added unless [Archive.Files] provides one.
	MachineIDPath = "etc/machine-id"
)

const (
	initMode      fs.FileMode = 0o755
	configMode    fs.FileMode = 0o644
	machineIDMode fs.FileMode = 0o444
	archiveMode   fs.FileMode = 0o644
)

// Skeleton returns the directories present in every archive. They are the
// mount points of the early mounts and the staging dir of the new root.
func Skeleton() []string {
	return []string{"dev", "etc", "newroot", "proc", "run", "sys", "tmp"}
}

// Archive describes the content of a stage1 initramfs.
type Archive struct {
	// Init is the path of the stage1 binary. It is added as [InitPath].
	Init string

	// Config is the optional path of the stage1 config file. It is added as
	// [ConfigPath].
	Config string

	// Files are additional files.
	Files []File

	// AllowDynamic skips the check that Init is statically linked.
	AllowDynamic bool
}

// archiveEntry is a regular file of the archive. Entries without source are
// written empty.
type archiveEntry struct {
	path   string
	source string
	mode   fs.FileMode
}

// Validate checks that the archive can be written and would boot.
func (a Archive) Validate() error {
	_, err := a.entries()
	if err != nil {
		return err
	}

	if a.AllowDynamic {
		return nil
	}

	err = CheckStatic(a.Init)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	return nil
}

func (a Archive) entries() ([]archiveEntry, error) {
	if a.Init == "" {
		return nil, fmt.Errorf("%w: no init given", ErrInvalidFile)
	}

	entries := []archiveEntry{
		{path: InitPath, source: a.Init, mode: initMode},
	}

	if a.Config != "" {
		entries = append(entries, archiveEntry{
			path:   ConfigPath,
			source: a.Config,
			mode:   configMode,
		})
	}

	for _, file := range a.Files {
		path, err := cleanPath(file.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
		}

		entries = append(entries, archiveEntry{path: path, source: file.Source})
	}

	seen := make(map[string]bool, len(entries))

	for _, entry := range entries {
		if seen[entry.path] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePath, entry.path)
		}

		seen[entry.path] = true
	}

	if !seen[MachineIDPath] {
		entries = append(entries, archiveEntry{path: MachineIDPath, mode: machineIDMode})
	}

	return entries, nil
}

// directories returns the skeleton and all parent directories of the
// entries, parents first.
func directories(entries []archiveEntry) []string {
	dirs := Skeleton()

	for _, entry := range entries {
		for dir := filepath.Dir(entry.path); dir != "."; dir = filepath.Dir(dir) {
			dirs = append(dirs, dir)
		}
	}

	slices.Sort(dirs)

	return slices.Compact(dirs)
}

// WriteTo writes all directories and files of the archive to w.
func (a Archive) WriteTo(w Writer) error {
	entries, err := a.entries()
	if err != nil {
		return err
	}

	for _, dir := range directories(entries) {
		err := w.WriteDirectory(dir)
		if err != nil {
			return fmt.Errorf("write directory %s: %w", dir, err)
		}
	}

	for _, entry := range entries {
		err := writeEntry(w, entry)
		if err != nil {
			return fmt.Errorf("write %s: %w", entry.path, err)
		}
	}

	return nil
}

func writeEntry(w Writer, entry archiveEntry) error {
	if entry.source == "" {
		return w.WriteRegular(entry.path, emptyFile{filepath.Base(entry.path)}, entry.mode)
	}

	source, err := os.Open(entry.source)
	if err != nil {
		return err
	}
	defer source.Close()

	return w.WriteRegular(entry.path, source, entry.mode)
}

// WriteFile validates the archive and writes it as CPIO archive to path.
//
// The archive is written to a temporary file in the same directory first and
// renamed once complete, so path never holds a partial archive.
func WriteFile(path string, a Archive) error {
	err := a.Validate()
	if err != nil {
		return err
	}

	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	defer func() {
		_ = file.Close()
		_ = os.Remove(file.Name())
	}()

	writer := NewCPIOWriter(file)

	err = a.WriteTo(writer)
	if err != nil {
		return err
	}

	err = writer.Close()
	if err != nil {
		return err
	}

	err = file.Chmod(archiveMode)
	if err != nil {
		return fmt.Errorf("chmod: %w", err)
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}

	err = os.Rename(file.Name(), path)
	if err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}
