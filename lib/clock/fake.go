// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake returns a FakeClock initialized to the given time. Time stands
// still until Advance is called.
//
// FakeClock is safe for concurrent use by multiple goroutines.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// FakeClock is a deterministic Clock for testing. Now returns the same
// value until Advance moves the clock forward.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
}

// Now returns the fake clock's current time.
func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Advance moves the clock forward by d. Panics if d is negative: the
// fake clock is monotonic, matching the guarantee tests rely on.
func (f *FakeClock) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: Advance with negative duration")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}
