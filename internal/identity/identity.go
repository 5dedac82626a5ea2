// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package identity

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/aibor/stageone/sysinit"
)

// Default paths used by [Manager].
const (
	// DefaultSerialNumberPath is the device tree node exposing the serial
	// number of the board.
	DefaultSerialNumberPath = "/sys/firmware/devicetree/base/serial-number"

	// DefaultScratchPath is where the identity is persisted. It lives on the
	// tmpfs mounted during early mounts.
	DefaultScratchPath = "/tmp/device_unique_id"

	// DefaultMachineIDPath is the path userspace reads the machine ID from.
	DefaultMachineIDPath = "/etc/machine-id"

	scratchFileMode   = 0o444
	machineIDFileMode = 0o444
)

// DeviceUniqueID is the unique identifier of the physical device as read
// from the hardware descriptor. It is kept byte for byte, including any
// trailing NUL or newline the firmware adds.
type DeviceUniqueID string

// Manager reads, persists and publishes the device identity.
//
// The zero value uses the default paths.
type Manager struct {
	// SerialNumberPath is the read-only hardware descriptor.
	SerialNumberPath string

	// ScratchPath is the file the identity is written to. It is created if
	// absent and truncated otherwise.
	ScratchPath string

	// MachineIDPath is the bind mount target. It is created empty if absent,
	// which is the case if the initramfs stays the root.
	MachineIDPath string

	bindMount func(source, target string) error
}

// ReadUniqueID reads the device unique ID from the hardware descriptor.
func (m *Manager) ReadUniqueID() (DeviceUniqueID, error) {
	path := orDefault(m.SerialNumberPath, DefaultSerialNumberPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read device unique id: %w", err)
	}

	if len(data) == 0 {
		return "", fmt.Errorf("%s: %w", path, ErrEmptyUniqueID)
	}

	return DeviceUniqueID(data), nil
}

// PersistAndBind writes the given ID into the scratch file and bind mounts
// the scratch file onto the machine ID path.
//
// The scratch file is read back before binding. The bind mount is not
// attempted if the content differs from the given ID.
func (m *Manager) PersistAndBind(id DeviceUniqueID) error {
	scratchPath := orDefault(m.ScratchPath, DefaultScratchPath)
	machineIDPath := orDefault(m.MachineIDPath, DefaultMachineIDPath)

	err := persist(scratchPath, []byte(id))
	if err != nil {
		return err
	}

	err = ensureFile(machineIDPath, machineIDFileMode)
	if err != nil {
		return fmt.Errorf("create machine id target: %w", err)
	}

	bindMount := m.bindMount
	if bindMount == nil {
		bindMount = sysinit.BindMount
	}

	err = bindMount(scratchPath, machineIDPath)
	if err != nil {
		return fmt.Errorf("publish machine id: %w", err)
	}

	return nil
}

// Establish reads the device unique ID and persists it. It returns the ID
// that was established.
func (m *Manager) Establish() (DeviceUniqueID, error) {
	id, err := m.ReadUniqueID()
	if err != nil {
		return "", err
	}

	err = m.PersistAndBind(id)
	if err != nil {
		return "", err
	}

	return id, nil
}

func persist(path string, data []byte) (err error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, scratchFileMode)
	if err != nil {
		return fmt.Errorf("open scratch file: %w", err)
	}

	defer func() {
		closeErr := file.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("close scratch file: %w", closeErr)
		}
	}()

	_, err = file.Write(data)
	if err != nil {
		return fmt.Errorf("write scratch file: %w", err)
	}

	err = file.Sync()
	if err != nil {
		return fmt.Errorf("sync scratch file: %w", err)
	}

	written, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read back scratch file: %w", err)
	}

	if !bytes.Equal(written, data) {
		return fmt.Errorf("%s: %w", path, ErrIdentityMismatch)
	}

	return nil
}

// ensureFile creates an empty file at path unless something exists there
// already. Existing files are not opened, so a read-only root with a present
// target is fine.
func ensureFile(path string, mode os.FileMode) error {
	_, err := os.Lstat(path)
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return err
	}

	return file.Close()
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}

	return value
}
