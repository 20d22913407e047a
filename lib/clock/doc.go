// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for testability.
//
// Production code accepts a Clock parameter instead of calling
// time.Now directly. Real() provides standard library behavior;
// Fake() provides a deterministic clock that advances only when
// Advance is called, so elapsed-time behavior can be tested without
// sleeping.
package clock
