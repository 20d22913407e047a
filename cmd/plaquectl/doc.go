// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

// Package main implements plaquectl — the command-line client for the
// plaqued control socket.
//
// Usage:
//
//	plaquectl [flags] get              print the current identity
//	plaquectl [flags] set              change identity values
//	plaquectl [flags] status           print read count and uptime
//
// The set command applies only the identity flags actually passed
// (--name, --group, --subgroup); the others keep their current values
// in the daemon.
package main
