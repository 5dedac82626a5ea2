// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package hal

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// RootTarget is the [Partition.Target] of the partition that becomes the new
// root.
const RootTarget = "/"

// Partition is a single storage partition to mount.
type Partition struct {
	// Source is a device path or one of the tags LABEL=, UUID=, PARTLABEL=
	// or PARTUUID=. Tags are resolved to the /dev/disk/by-* links, which
	// must be provided by the board.
	Source string `yaml:"source"`

	// Target is the absolute mount point. [RootTarget] marks the new root.
	Target string `yaml:"target"`

	// FSType is the file system type, like ext4 or squashfs.
	FSType string `yaml:"fstype"`

	// Options are mount options. Generic ones like "ro" or "noatime" are
	// turned into mount flags, all others are passed to the file system.
	Options []string `yaml:"options"`
}

// IsRoot returns true if the partition becomes the new root.
func (p Partition) IsRoot() bool {
	return p.Target == RootTarget
}

// Validate checks that all fields required for mounting are set.
func (p Partition) Validate() error {
	switch {
	case p.Source == "":
		return fmt.Errorf("%w: missing source", ErrInvalidPartition)
	case p.FSType == "":
		return fmt.Errorf("%w: %s: missing fstype", ErrInvalidPartition, p.Source)
	case !filepath.IsAbs(p.Target):
		return fmt.Errorf("%w: %s: target %q not absolute", ErrInvalidPartition, p.Source, p.Target)
	}

	return nil
}

var tagDirs = map[string]string{
	"LABEL":     "/dev/disk/by-label",
	"UUID":      "/dev/disk/by-uuid",
	"PARTLABEL": "/dev/disk/by-partlabel",
	"PARTUUID":  "/dev/disk/by-partuuid",
}

// device returns the device path for the partition's source.
func (p Partition) device() string {
	tag, value, found := strings.Cut(p.Source, "=")
	if !found {
		return p.Source
	}

	dir, known := tagDirs[strings.ToUpper(tag)]
	if !known || value == "" {
		return p.Source
	}

	return filepath.Join(dir, value)
}

var optionFlags = map[string]uintptr{
	"defaults":   0,
	"rw":         0,
	"ro":         unix.MS_RDONLY,
	"noatime":    unix.MS_NOATIME,
	"nodiratime": unix.MS_NODIRATIME,
	"relatime":   unix.MS_RELATIME,
	"nodev":      unix.MS_NODEV,
	"noexec":     unix.MS_NOEXEC,
	"nosuid":     unix.MS_NOSUID,
	"sync":       unix.MS_SYNCHRONOUS,
}

// mountArgs splits the options into mount flags and file system specific
// data.
func (p Partition) mountArgs() (uintptr, string) {
	var (
		flags uintptr
		data  []string
	)

	for _, opt := range p.Options {
		flag, known := optionFlags[opt]
		if !known {
			data = append(data, opt)
			continue
		}

		flags |= flag
	}

	return flags, strings.Join(data, ",")
}
