// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package hal

import (
	"fmt"
	"path/filepath"
)

// DefaultStagingDir is where the new root is mounted before it is moved onto
// "/".
const DefaultStagingDir = "/newroot"

// DefaultCarryMounts returns the mount points that are moved into the new
// root before switching to it.
func DefaultCarryMounts() []string {
	return []string{"/dev", "/proc", "/sys", "/run", "/tmp"}
}

// Table is a [BoardHAL] that mounts a static list of partitions.
//
// Partitions are mounted in the order given. If one of them targets
// [RootTarget], it is mounted at the staging dir first, all others are
// mounted beneath it, and finally it is moved onto "/" and becomes the root of
// the process. Without a root partition, all partitions are mounted beneath
// the current root.
type Table struct {
	Partitions []Partition

	// StagingDir defaults to [DefaultStagingDir].
	StagingDir string

	// CarryMounts are moved from the current root into the new root before
	// switching. Paths that are not mount points are skipped. Nil means
	// [DefaultCarryMounts].
	CarryMounts []string

	sys mounter
}

var _ BoardHAL = Table{}

// MountEarlyPartitions mounts all partitions of the table.
//
// It stops at the first failure. Nothing is unmounted in that case.
func (t Table) MountEarlyPartitions() error {
	root, others, err := t.plan()
	if err != nil {
		return err
	}

	sys := t.sys
	if sys == nil {
		sys = unixMounter{}
	}

	prefix := ""

	if root != nil {
		prefix = t.stagingDir()

		err := mountPartition(sys, *root, prefix)
		if err != nil {
			return err
		}
	}

	for _, partition := range others {
		err := mountPartition(sys, partition, filepath.Join(prefix, partition.Target))
		if err != nil {
			return err
		}
	}

	if root == nil {
		return nil
	}

	return t.switchRoot(sys, prefix)
}

// plan validates the table and separates the root partition from the others.
func (t Table) plan() (*Partition, []Partition, error) {
	var (
		root   *Partition
		others []Partition
	)

	for idx, partition := range t.Partitions {
		err := partition.Validate()
		if err != nil {
			return nil, nil, fmt.Errorf("partition %d: %w", idx, err)
		}

		if !partition.IsRoot() {
			others = append(others, partition)
			continue
		}

		if root != nil {
			return nil, nil, fmt.Errorf("partition %d: %w", idx, ErrMultipleRoots)
		}

		root = &t.Partitions[idx]
	}

	return root, others, nil
}

func (t Table) stagingDir() string {
	if t.StagingDir == "" {
		return DefaultStagingDir
	}

	return t.StagingDir
}

func (t Table) carryMounts() []string {
	if t.CarryMounts == nil {
		return DefaultCarryMounts()
	}

	return t.CarryMounts
}

func mountPartition(sys mounter, partition Partition, target string) error {
	err := sys.MkdirAll(target)
	if err != nil {
		return fmt.Errorf("create mount point %s: %w", target, err)
	}

	flags, data := partition.mountArgs()

	err = sys.Mount(partition.device(), target, partition.FSType, flags, data)
	if err != nil {
		return fmt.Errorf("mount %s on %s: %w", partition.Source, target, err)
	}

	return nil
}

// switchRoot moves the mount at dir onto "/" and makes it the root of the
// process, like switch_root(8) does. Content of the old root is not touched.
func (t Table) switchRoot(sys mounter, dir string) error {
	for _, path := range t.carryMounts() {
		isMountPoint, err := sys.IsMountPoint(path)
		if err != nil {
			return fmt.Errorf("check mount point %s: %w", path, err)
		}

		if !isMountPoint {
			continue
		}

		target := filepath.Join(dir, path)

		err = sys.MkdirAll(target)
		if err != nil {
			return fmt.Errorf("create mount point %s: %w", target, err)
		}

		err = sys.Move(path, target)
		if err != nil {
			return fmt.Errorf("move %s to new root: %w", path, err)
		}
	}

	err := sys.Chdir(dir)
	if err != nil {
		return fmt.Errorf("chdir %s: %w", dir, err)
	}

	err = sys.Move(".", "/")
	if err != nil {
		return fmt.Errorf("move new root: %w", err)
	}

	err = sys.Chroot(".")
	if err != nil {
		return fmt.Errorf("chroot: %w", err)
	}

	err = sys.Chdir("/")
	if err != nil {
		return fmt.Errorf("chdir /: %w", err)
	}

	return nil
}
