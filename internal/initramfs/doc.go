// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package initramfs builds the initramfs for stage1. The initramfs is a CPIO
// archive with the stage1 binary as "/init", its config and any additional
// files.
package initramfs
