// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aibor/stageone/internal/initramfs"
	"github.com/cavaliergopher/cpio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	initBin := filepath.Join(dir, "stage1")
	require.NoError(t, os.WriteFile(initBin, []byte("#!/bin/sh\n"), 0o600))

	config := filepath.Join(dir, "stage1.yaml")
	require.NoError(t, os.WriteFile(config, []byte("init: /sbin/init\n"), 0o600))

	output := filepath.Join(dir, "initrd.cpio")

	err := initramfs.WriteFile(output, initramfs.Archive{
		Init:         initBin,
		Config:       config,
		Files:        []initramfs.File{{Source: config, Path: "etc/stage1.yaml.orig"}},
		AllowDynamic: true,
	})
	require.NoError(t, err)

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	archive, err := os.Open(output)
	require.NoError(t, err)

	defer archive.Close()

	modes := map[string]cpio.FileMode{}
	bodies := map[string]string{}
	reader := cpio.NewReader(archive)

	for {
		hdr, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		require.NoError(t, err)

		modes[hdr.Name] = hdr.Mode

		body, err := io.ReadAll(reader)
		require.NoError(t, err)

		bodies[hdr.Name] = string(body)
	}

	for _, dir := range initramfs.Skeleton() {
		assert.EqualValuesf(t, cpio.TypeDir|0o755, modes[dir], "mode of %s", dir)
	}

	assert.EqualValues(t, cpio.TypeReg|0o755, modes["init"])
	assert.EqualValues(t, cpio.TypeReg|0o644, modes["etc/stage1.yaml"])
	assert.EqualValues(t, cpio.TypeReg|0o600, modes["etc/stage1.yaml.orig"])
	assert.Equal(t, "#!/bin/sh\n", bodies["init"])
	assert.Equal(t, "init: /sbin/init\n", bodies["etc/stage1.yaml"])
	assert.EqualValues(t, cpio.TypeReg|0o444, modes["etc/machine-id"])
	assert.Contains(t, bodies, "etc/machine-id")
	assert.Empty(t, bodies["etc/machine-id"])

	leftovers, err := filepath.Glob(filepath.Join(dir, ".initrd.cpio.*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temporary files")
}

func TestWriteFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	initBin := filepath.Join(dir, "stage1")
	require.NoError(t, os.WriteFile(initBin, []byte("#!/bin/sh\n"), 0o600))

	output := filepath.Join(dir, "initrd.cpio")

	err := initramfs.WriteFile(output, initramfs.Archive{Init: initBin})
	require.ErrorIs(t, err, initramfs.ErrNotELFFile)

	assert.NoFileExists(t, output)
}
