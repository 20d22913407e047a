// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

// Package plaquefs mounts the plaque status file as a single-file FUSE
// filesystem.
//
// The mounted directory contains exactly one regular file, readable by
// everyone and writable by no one. Every open of the file starts a
// fresh read session against the report generator: the first read at
// offset zero returns a full report, subsequent reads return
// end-of-stream. Reads bypass the kernel page cache (direct I/O) so
// each session sees current counter and uptime values rather than a
// cached report.
package plaquefs
