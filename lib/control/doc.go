// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

// Package control implements the plaque control protocol: a CBOR
// request-response exchange over a Unix socket.
//
// The daemon registers an action handler per operation (identity-get,
// identity-set, status) on a [SocketServer]; plaquectl and other local
// tooling use [Client] to call them. Each connection carries exactly
// one request and one response. Identity values changed through the
// socket take effect on the next read session of the status file, with
// no remount or restart.
package control
