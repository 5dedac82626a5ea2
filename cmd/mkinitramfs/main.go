// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Command mkinitramfs packs the stage1 binary, its config and additional
// files into an initramfs.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aibor/stageone/internal/initramfs"
	"github.com/aibor/stageone/internal/stage1"
	"github.com/spf13/cobra"
)

// Set on build.
var version = "dev"

type options struct {
	init         string
	config       string
	files        []string
	output       string
	allowDynamic bool
	debug        bool
}

func (o options) archive() (initramfs.Archive, error) {
	archive := initramfs.Archive{
		Init:         o.init,
		Config:       o.config,
		AllowDynamic: o.allowDynamic,
	}

	for _, spec := range o.files {
		file, err := initramfs.ParseFile(spec)
		if err != nil {
			return archive, err
		}

		archive.Files = append(archive.Files, file)
	}

	return archive, nil
}

func run(opts options) error {
	if opts.config != "" {
		// Catch config errors at build time instead of on the device.
		cfg, err := stage1.LoadConfig(opts.config)
		if err != nil {
			return err
		}

		slog.Debug("Config valid",
			slog.String("init", cfg.Init),
			slog.Int("partitions", len(cfg.Partitions)),
		)
	}

	archive, err := opts.archive()
	if err != nil {
		return err
	}

	for _, file := range archive.Files {
		slog.Debug("Add file", slog.String("source", file.Source), slog.String("path", file.Path))
	}

	err = initramfs.WriteFile(opts.output, archive)
	if err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}

	slog.Debug("Initramfs written", slog.String("path", opts.output))

	return nil
}

func rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "mkinitramfs --init <stage1> -o <file>",
		Short: "Build a stage1 initramfs",
		Long: "Build a CPIO initramfs with the given stage1 binary as /init.\n\n" +
			"The stage1 binary must be statically linked, as the initramfs " +
			"contains no libraries.",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(cmd.ErrOrStderr(), opts.debug)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.init, "init", "", "stage1 binary added as /init")
	flags.StringVar(&opts.config, "config", "", "stage1 config added as /"+initramfs.ConfigPath)
	flags.StringArrayVar(&opts.files, "file", nil, "additional file as source=path, may be repeated")
	flags.BoolVar(&opts.allowDynamic, "allow-dynamic", false, "do not require a statically linked init")
	flags.StringVarP(&opts.output, "output", "o", "", "output file")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")

	_ = cmd.MarkFlagRequired("init")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func main() {
	err := rootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
