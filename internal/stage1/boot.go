// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package stage1

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/aibor/stageone/internal/hal"
	"github.com/aibor/stageone/internal/identity"
	"github.com/aibor/stageone/internal/rootfs"
)

const (
	rootPath  = "/"
	logPrefix = "STAGE1: "
	logFlags  = log.LUTC | log.Ldate | log.Lmicroseconds
)

// EarlyMounter sets up the minimal environment. Failures are reported as
// diagnostic lines and never stop the boot.
type EarlyMounter interface {
	MountEarly() []string
}

// IdentityManager reads and publishes the device identity.
type IdentityManager interface {
	ReadUniqueID() (identity.DeviceUniqueID, error)
	PersistAndBind(id identity.DeviceUniqueID) error
}

// Boot runs the transition from the initramfs to the final init.
type Boot struct {
	Config   Config
	System   System
	Early    EarlyMounter
	Board    hal.BoardHAL
	Identity IdentityManager
	Cleaner  rootfs.Cleaner

	// Console receives all output.
	Console io.Writer

	now func() time.Time
}

// New creates a [Boot] for the running system with all collaborators
// derived from the config.
func New(cfg Config, console io.Writer) *Boot {
	return &Boot{
		Config:   cfg,
		System:   LinuxSystem{},
		Early:    cfg.EarlyMounts(),
		Board:    cfg.BoardHAL(),
		Identity: cfg.IdentityManager(),
		Cleaner:  rootfs.Reclaimer{},
		Console:  console,
	}
}

// Run boots the system and execs the final init.
//
// It only returns if the boot failed. The returned error must be treated as
// fatal: there is no way back once partitions are mounted. Panics of any
// collaborator are returned as [ErrPanic].
func (b *Boot) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	start := b.clock()

	b.System.Umask(0)

	var diagnostics []string

	err = b.System.Setenv(b.Config.Env)
	if err != nil {
		diagnostics = append(diagnostics, "set environment: "+err.Error())
	}

	handle, orig, err := b.captureRamdisk()
	if err != nil {
		return err
	}

	diagnostics = append(diagnostics, b.Early.MountEarly()...)
	b.printDiagnostics(diagnostics)

	logger := log.New(b.Console, logPrefix, logFlags)

	preMount := b.clock()

	err = b.Board.MountEarlyPartitions()
	if err != nil {
		_ = handle.Close()
		return fmt.Errorf("%w: %w", ErrPartitions, err)
	}

	postMount := b.clock()

	current, err := b.System.RootIdentity(rootPath)
	if err != nil {
		_ = handle.Close()
		return fmt.Errorf("%w: %w", ErrRootIdentity, err)
	}

	err = b.establishIdentity(logger)
	if err != nil {
		_ = handle.Close()
		return err
	}

	b.reclaim(logger, handle, orig, current)

	logger.Print("INFO filesystems mounted")
	logger.Printf("INFO pre-mount: +%s post-mount: +%s",
		preMount.Sub(start), postMount.Sub(start))

	return b.exec(logger)
}

func (b *Boot) clock() time.Time {
	if b.now != nil {
		return b.now()
	}

	return time.Now()
}

// captureRamdisk opens the current root and samples its identity. Both must
// happen before anything is mounted.
func (b *Boot) captureRamdisk() (*rootfs.RamdiskHandle, rootfs.Identity, error) {
	handle, err := b.System.OpenRamdisk(rootPath)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrRamdisk, err)
	}

	orig, err := b.System.RootIdentity(rootPath)
	if err != nil {
		_ = handle.Close()
		return nil, 0, fmt.Errorf("%w: %w", ErrRamdisk, err)
	}

	return handle, orig, nil
}

func (b *Boot) printDiagnostics(diagnostics []string) {
	if len(diagnostics) == 0 {
		_, _ = fmt.Fprintln(b.Console, "No startup errors")
		return
	}

	for _, line := range diagnostics {
		_, _ = fmt.Fprintln(b.Console, line)
	}
}

func (b *Boot) establishIdentity(logger *log.Logger) error {
	id, err := b.Identity.ReadUniqueID()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceIdentity, err)
	}

	logger.Printf("INFO device unique id: %q", string(id))

	err = b.Identity.PersistAndBind(id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceIdentity, err)
	}

	return nil
}

// reclaim cleans up the initramfs if the root moved away from it. Failures
// are logged only, as the new root is in place already.
func (b *Boot) reclaim(
	logger *log.Logger,
	handle *rootfs.RamdiskHandle,
	orig, current rootfs.Identity,
) {
	cleaned, err := rootfs.Detect(orig, current, handle, b.Cleaner)
	if err != nil {
		logger.Print("WARN initramfs cleanup: ", err)
	}

	if !cleaned {
		logger.Printf("INFO root still on device %s, initramfs kept", orig)
		_ = handle.Close()

		return
	}

	logger.Printf("INFO root moved from device %s to %s", orig, current)
}

func (b *Boot) exec(logger *log.Logger) error {
	argv := []string{b.Config.Init, b.Config.InitFlag}

	logger.Printf("INFO exec %v", argv)

	err := b.System.Exec(argv[0], argv, os.Environ())

	return fmt.Errorf("%w %s: %w", ErrExec, argv[0], err)
}
