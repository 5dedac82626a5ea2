// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rootfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sys/unix"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// populate creates a small tree with all kinds of entries in dir.
func populate(t *testing.T, dir string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "etc", "deep", "deeper"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "newroot"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "init"), []byte("ELF"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "etc", "deep", "deeper", "conf"), nil, 0o644))
	require.NoError(t, os.Symlink("/does/not/exist", filepath.Join(dir, "dangling")))
	require.NoError(t, os.Symlink("etc", filepath.Join(dir, "etc-link")))
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := []string{}
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	return names
}

func TestSample(t *testing.T) {
	dir := t.TempDir()

	id, err := Sample(dir)
	require.NoError(t, err)

	again, err := Sample(dir)
	require.NoError(t, err)

	assert.Equal(t, id, again)

	_, err = Sample(filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, unix.ENOENT)
}

func TestMoved(t *testing.T) {
	tests := []struct {
		name     string
		orig     Identity
		current  Identity
		expected bool
	}{
		{name: "same", orig: 42, current: 42, expected: false},
		{name: "zero", orig: 0, current: 0, expected: false},
		{name: "different", orig: 42, current: 7, expected: true},
		{name: "different reversed", orig: 7, current: 42, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Moved(tt.orig, tt.current))
		})
	}
}

func TestIdentity_String(t *testing.T) {
	assert.Equal(t, "42", Identity(42).String())
}

func TestRamdiskHandle(t *testing.T) {
	dir := t.TempDir()

	handle, err := OpenRamdisk(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, handle.Name())

	fd, err := handle.fd()
	require.NoError(t, err)

	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	require.NoError(t, err)
	assert.NotZero(t, flags&unix.FD_CLOEXEC, "must be close on exec")

	require.NoError(t, handle.Close())
	require.NoError(t, handle.Close(), "second close is a no-op")

	_, err = handle.fd()
	require.ErrorIs(t, err, ErrHandleClosed)
}

func TestOpenRamdisk_NotDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	_, err := OpenRamdisk(file)
	require.ErrorIs(t, err, unix.ENOTDIR)
}

func TestIsRamdiskType(t *testing.T) {
	tests := []struct {
		name     string
		fsType   int64
		expected bool
	}{
		{name: "ramfs", fsType: unix.RAMFS_MAGIC, expected: true},
		{name: "tmpfs", fsType: unix.TMPFS_MAGIC, expected: true},
		{name: "ext4", fsType: unix.EXT4_SUPER_MAGIC, expected: false},
		{name: "squashfs", fsType: unix.SQUASHFS_MAGIC, expected: false},
		{name: "zero", fsType: 0, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRamdiskType(tt.fsType))
		})
	}
}

func TestReclaimer_Cleanup(t *testing.T) {
	t.Run("removes everything on the device", func(t *testing.T) {
		dir := t.TempDir()
		populate(t, dir)

		orig, err := Sample(dir)
		require.NoError(t, err)

		handle, err := OpenRamdisk(dir)
		require.NoError(t, err)

		err = Reclaimer{skipFSCheck: true}.Cleanup(handle, orig)
		require.NoError(t, err)

		assert.Empty(t, listDir(t, dir))
		assert.DirExists(t, dir, "the root itself stays")

		_, err = handle.fd()
		require.ErrorIs(t, err, ErrHandleClosed, "handle must be closed")
	})

	t.Run("leaves other devices alone", func(t *testing.T) {
		dir := t.TempDir()
		populate(t, dir)

		orig, err := Sample(dir)
		require.NoError(t, err)

		handle, err := OpenRamdisk(dir)
		require.NoError(t, err)

		err = Reclaimer{skipFSCheck: true}.Cleanup(handle, orig+1)
		require.NoError(t, err)

		expected := []string{"dangling", "etc", "etc-link", "init", "newroot"}
		assert.Equal(t, expected, listDir(t, dir))
	})

	t.Run("closed handle", func(t *testing.T) {
		handle, err := OpenRamdisk(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, handle.Close())

		err = Reclaimer{}.Cleanup(handle, 0)
		require.ErrorIs(t, err, ErrHandleClosed)
	})
}

type recordingCleaner struct {
	calls []Identity
	err   error
}

func (c *recordingCleaner) Cleanup(_ *RamdiskHandle, orig Identity) error {
	c.calls = append(c.calls, orig)
	return c.err
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name          string
		orig          Identity
		current       Identity
		cleanerErr    error
		expectedRan   bool
		expectedCalls []Identity
		expectedErr   error
	}{
		{
			name:    "root did not move",
			orig:    42,
			current: 42,
		},
		{
			name:          "root moved",
			orig:          42,
			current:       7,
			expectedRan:   true,
			expectedCalls: []Identity{42},
		},
		{
			name:          "cleanup fails",
			orig:          42,
			current:       7,
			cleanerErr:    assert.AnError,
			expectedRan:   true,
			expectedCalls: []Identity{42},
			expectedErr:   assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaner := &recordingCleaner{err: tt.cleanerErr}

			ran, err := Detect(tt.orig, tt.current, nil, cleaner)
			require.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, tt.expectedRan, ran)
			assert.Equal(t, tt.expectedCalls, cleaner.calls)
		})
	}
}
