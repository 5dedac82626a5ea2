// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: MIT

package initramfs

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// CheckStatic returns an error if the file at path is not a statically
// linked ELF file.
//
// [ErrNotELFFile] is returned if the file does not have an ELF magic number.
// [ErrDynamicallyLinked] is returned if the file names an interpreter.
func CheckStatic(path string) error {
	interpreter, err := readInterpreter(path)
	if err != nil {
		return err
	}

	if interpreter != "" {
		return fmt.Errorf("%w: interpreter %s", ErrDynamicallyLinked, interpreter)
	}

	return nil
}

// readInterpreter fetches the ELF interpreter path from the ELF file. It
// returns an empty string if there is none.
func readInterpreter(path string) (string, error) {
	elfFile, err := elf.Open(path)
	if err != nil {
		// Files shorter than the ELF header fail with EOF.
		var formatErr *elf.FormatError
		if errors.As(err, &formatErr) || errors.Is(err, io.EOF) ||
			errors.Is(err, io.ErrUnexpectedEOF) {
			return "", fmt.Errorf("%s: %w", path, ErrNotELFFile)
		}

		return "", err
	}
	defer elfFile.Close()

	for _, prog := range elfFile.Progs {
		if prog.Type != elf.PT_INTERP {
			continue
		}

		buf := make([]byte, prog.Filesz)

		_, err := prog.Open().Read(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read interpreter: %w", err)
		}

		// Only terminate if the found path is not empty.
		interpreter := unix.ByteSliceToString(buf)
		if interpreter != "" {
			return interpreter, nil
		}
	}

	return "", nil
}
