// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides plaque's standard CBOR encoding configuration.
//
// CBOR is the wire format of the control socket protocol. This package
// provides shared encoding and decoding modes so every package encodes
// identically without duplicating configuration. The encoder uses Core
// Deterministic Encoding (RFC 8949 §4.2): sorted map keys, smallest
// integer encoding, no indefinite-length items. Same logical data
// always produces identical bytes.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (the control socket):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
package codec
