// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

// Package report generates the plaque status report and owns the
// access-counting state behind it.
//
// A [Generator] answers single-shot reads: the first read of a session
// (offset zero) renders a fresh report into the caller's buffer and
// advances the session offset past the end; any later read of the same
// session signals end-of-stream by returning zero bytes. This contract
// is what lets callers that re-read until empty terminate after one
// report instead of looping forever.
//
// The generator owns two pieces of runtime state: a read counter that
// increments exactly once per fresh session, and the activation
// timestamp captured once by [Generator.Activate]. Identity values
// (name, group, subgroup) live in a [Params] store that may be
// reconfigured at any time; each report snapshots the store at render
// time, so changes appear in the next report without reactivation.
package report
