// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the plaque
// daemon.
//
// Configuration is loaded from a single file passed via the --config
// flag. There are no fallbacks, no ~/.config discovery, and no
// automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// [Watch] optionally monitors the loaded file for rewrites, making the
// config file a second runtime reconfiguration surface alongside the
// control socket: editing the identity section re-applies the values
// to the running daemon without a remount.
package config
