// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import "fmt"

// EarlyMounts describes the environment that is set up before anything else
// runs: kernel modules, special file systems, /dev symlinks and network
// links.
type EarlyMounts struct {
	// Modules is a glob pattern of kernel modules to load. Empty disables
	// module loading.
	Modules string

	// MountPoints are the special file systems to mount.
	MountPoints MountPoints

	// Symlinks are created after all mounts have been tried.
	Symlinks Symlinks

	// Interfaces are network links that are brought up.
	Interfaces []string

	// The following are replaced in tests.
	loadModules   func(string) error
	mount         func(string, MountOptions) error
	createSymlink func(string, string) error
	setLinkUp     func(string) error
}

// DefaultEarlyMounts returns the [EarlyMounts] used if nothing else is
// configured.
func DefaultEarlyMounts() EarlyMounts {
	return EarlyMounts{
		MountPoints: EarlyMountPoints(),
		Symlinks:    DevSymlinks(),
		Interfaces:  []string{"lo"},
	}
}

// MountEarly runs all early setup steps and returns a diagnostic line for
// every step that failed, in the order the steps ran.
//
// It never stops early. The boot continues with whatever could be set up;
// partitions are mounted afterwards and fail on their own if something
// essential is missing.
func (e EarlyMounts) MountEarly() []string {
	var diagnostics []string

	report := func(err error) {
		if err == nil {
			return
		}

		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, err := range joined.Unwrap() {
				diagnostics = append(diagnostics, err.Error())
			}

			return
		}

		diagnostics = append(diagnostics, err.Error())
	}

	if e.Modules != "" {
		report(e.loadModulesFunc()(e.Modules))
	}

	mount := e.mountFunc()
	for path, opts := range sortedMap(e.MountPoints) {
		err := mount(path, opts)
		if err != nil && opts.MayFail {
			err = fmt.Errorf("optional %w", err)
		}

		report(err)
	}

	createSymlink := e.createSymlinkFunc()
	for link, target := range sortedMap(e.Symlinks) {
		report(createSymlink(link, target))
	}

	setLinkUp := e.setLinkUpFunc()
	for _, name := range e.Interfaces {
		report(setLinkUp(name))
	}

	return diagnostics
}

func (e EarlyMounts) loadModulesFunc() func(string) error {
	if e.loadModules != nil {
		return e.loadModules
	}

	return LoadModules
}

func (e EarlyMounts) mountFunc() func(string, MountOptions) error {
	if e.mount != nil {
		return e.mount
	}

	return Mount
}

func (e EarlyMounts) createSymlinkFunc() func(string, string) error {
	if e.createSymlink != nil {
		return e.createSymlink
	}

	return CreateSymlink
}

func (e EarlyMounts) setLinkUpFunc() func(string) error {
	if e.setLinkUp != nil {
		return e.setLinkUp
	}

	return SetLinkUp
}
