// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the current-time reading. Production code injects
// Real(); tests inject Fake() with deterministic time control.
//
// Every production function that reads the current time should accept
// a Clock parameter (or be a method on a struct with a Clock field)
// instead of calling time.Now directly.
type Clock interface {
	// Now returns the current time. The returned value carries a
	// monotonic reading, so differences between two Now results are
	// immune to wall-clock adjustment.
	Now() time.Time
}
