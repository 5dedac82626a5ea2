// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Command stage1 is the init of the initramfs. It mounts the real root,
// establishes the device identity and execs the final init.
package main

import (
	"io"
	"os"

	"github.com/aibor/stageone/internal/stage1"
	"github.com/aibor/stageone/sysinit"
)

func run(console io.Writer) error {
	if !sysinit.IsPidOne() {
		return sysinit.ErrNotPidOne
	}

	cfg, err := stage1.LoadConfig(stage1.DefaultConfigPath)
	if err != nil {
		return err
	}

	return stage1.New(cfg, console).Run()
}

func main() {
	err := run(os.Stdout)

	// Run only returns on failure. Exiting as PID 1 makes the kernel panic,
	// which is the intended stop.
	stage1.Abort(os.Stdout, err)
	os.Exit(1)
}
