// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

// Package main implements plaqued — the daemon that publishes a
// read-only status file reporting the configured identity (name,
// group, subgroup), an access counter, and time since activation.
//
// The file is served through a single-file FUSE mount. Each open of
// the file is one read session: the first read returns the full
// report, further reads return end-of-stream, and every session
// increments the shared access counter exactly once.
//
// Identity values can be changed at runtime, without a remount,
// through two surfaces: the CBOR control socket (see lib/control and
// plaquectl) and — when --watch-config is set — rewrites of the YAML
// config file. Changes take effect on the next read session.
package main
