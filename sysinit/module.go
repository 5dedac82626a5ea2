// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	moduleTypeUnknown moduleType = ""
	moduleTypePlain   moduleType = ".ko"
	moduleTypeGZIP    moduleType = ".ko.gz"
	moduleTypeXZ      moduleType = ".ko.xz"
	moduleTypeZSTD    moduleType = ".ko.zst"
)

type moduleType string

func parseModuleType(fileName string) moduleType {
	types := []moduleType{
		moduleTypePlain,
		moduleTypeGZIP,
		moduleTypeXZ,
		moduleTypeZSTD,
	}

	for _, typ := range types {
		if strings.HasSuffix(fileName, string(typ)) {
			return typ
		}
	}

	return moduleTypeUnknown
}

// ModuleError records a kernel module that could not be loaded.
type ModuleError struct {
	Path string
	Err  error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("load module %s: %v", e.Path, e.Err)
}

func (e *ModuleError) Unwrap() error {
	return e.Err
}

// LoadModules loads all files found for the given glob pattern as kernel
// modules in lexicographic order.
//
// Storage drivers are usually required before partitions can be mounted, so
// a module failing to load does not prevent the remaining ones from being
// tried. All failures are returned joined, each as [ModuleError].
//
// See [filepath.Glob] for the pattern format.
func LoadModules(pattern string) error {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("list module files: %w", err)
	}

	var errs []error

	for _, file := range files {
		if info, err := os.Stat(file); err == nil && info.IsDir() {
			continue
		}

		if err := LoadModule(file, ""); err != nil {
			errs = append(errs, &ModuleError{Path: file, Err: err})
		}
	}

	return errors.Join(errs...)
}

// LoadModule loads the kernel module located at the given path with the given
// parameters.
//
// The file may be compressed. The caller is responsible to ensure the module
// belongs to the running kernel and all dependencies are satisfied.
func LoadModule(path string, params string) error {
	module, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer module.Close()

	typ := parseModuleType(module.Name())

	// finit_module(2) can decompress on its own. Only if it is not available
	// the module is read into memory for init_module(2).
	err = finitModule(int(module.Fd()), params, finitFlagsFor(typ))
	if !errors.Is(err, errors.ErrUnsupported) {
		return err
	}

	data, err := readModule(module, typ)
	if err != nil {
		return err
	}

	return initModule(data, params)
}

func readModule(module io.Reader, typ moduleType) ([]byte, error) {
	switch typ {
	case moduleTypeGZIP:
		gzipReader, err := gzip.NewReader(module)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gzipReader.Close()

		module = gzipReader
	case moduleTypePlain:
	default:
		return nil, fmt.Errorf("extension %q: %w", typ, errors.ErrUnsupported)
	}

	var data bytes.Buffer

	_, err := data.ReadFrom(module)
	if err != nil {
		return nil, fmt.Errorf("read module: %w", err)
	}

	return data.Bytes(), nil
}

func finitFlagsFor(typ moduleType) finitFlags {
	var flags finitFlags

	if isSupportedFinitCompressionType(typ) {
		flags |= finitFlagCompressedFile
	}

	return flags
}

// isSupportedFinitCompressionType checks if the given extension is one of the
// known extensions finit_module(2) supports.
func isSupportedFinitCompressionType(typ moduleType) bool {
	supportedTypes := []moduleType{
		moduleTypeGZIP,
		moduleTypeXZ,
		moduleTypeZSTD,
	}

	return slices.Contains(supportedTypes, typ)
}
