// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/plaque-project/plaque/lib/clock"
)

// MaxReportSize is the capacity of the render buffer. A report longer
// than this is truncated to exactly this many bytes; rendering never
// fails on length. Identity values of ordinary width stay far below
// the limit.
const MaxReportSize = 1024

// ErrNotActivated is returned by HandleRead before Activate has run.
var ErrNotActivated = errors.New("report: generator not activated")

// ErrBufferTooSmall is returned when the caller's destination cannot
// hold the rendered report. The report is delivered whole or not at
// all; there are no partial writes. The read-count increment for the
// attempt stands.
var ErrBufferTooSmall = errors.New("report: destination smaller than rendered report")

// ErrAlreadyActivated is returned by a second call to Activate. The
// activation timestamp is set exactly once.
var ErrAlreadyActivated = errors.New("report: generator already activated")

// CopyFaultError reports that the destination buffer could not accept
// the rendered bytes. The read remains failed for its caller, but the
// generator is unaffected and future sessions proceed normally.
type CopyFaultError struct {
	Err error
}

func (e *CopyFaultError) Error() string {
	return fmt.Sprintf("report: boundary copy fault: %v", e.Err)
}

func (e *CopyFaultError) Unwrap() error { return e.Err }

// CopyFunc transfers rendered bytes into the caller-owned destination.
// The default implementation is a plain copy, which cannot fail; the
// hook exists for bindings whose destination write can fault and for
// tests exercising the fault path.
type CopyFunc func(dst, src []byte) (int, error)

// Options configures a Generator.
type Options struct {
	// Params supplies the identity values rendered into each report.
	// Required.
	Params *Params

	// Clock is the time source for the activation timestamp and
	// uptime computation. If nil, clock.Real() is used.
	Clock clock.Clock

	// Copy transfers the rendered report into the caller's buffer.
	// If nil, a plain copy is used.
	Copy CopyFunc
}

// Generator renders status reports and owns the access-counting state.
// Safe for concurrent use by independent read sessions: the counter
// increment is atomic, and the activation timestamp is immutable once
// set.
type Generator struct {
	params *Params
	clock  clock.Clock
	copy   CopyFunc

	readCount atomic.Uint64

	// truncatedReports counts reports that hit the MaxReportSize cap.
	// Truncation never fails a read; this counter makes it visible.
	truncatedReports atomic.Uint64

	// mu guards activation. activatedAt is written once under mu and
	// never mutated afterwards.
	mu          sync.Mutex
	activated   bool
	activatedAt time.Time
}

// NewGenerator creates a Generator. Activate must be called before the
// first read.
func NewGenerator(options Options) (*Generator, error) {
	if options.Params == nil {
		return nil, fmt.Errorf("report: params are required")
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Copy == nil {
		options.Copy = func(dst, src []byte) (int, error) {
			return copy(dst, src), nil
		}
	}
	return &Generator{
		params: options.Params,
		clock:  options.Clock,
		copy:   options.Copy,
	}, nil
}

// Activate captures the activation timestamp. Must be called exactly
// once, before any read. A second call returns ErrAlreadyActivated and
// leaves the original timestamp in place.
func (g *Generator) Activate() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.activated {
		return ErrAlreadyActivated
	}
	g.activated = true
	g.activatedAt = g.clock.Now()
	return nil
}

// ReadCount returns the number of fresh-session reads handled so far,
// including reads that later failed on capacity or copy faults.
func (g *Generator) ReadCount() uint64 {
	return g.readCount.Load()
}

// TruncatedReports returns the number of reports cut at the
// MaxReportSize cap. Nonzero values indicate identity fields far wider
// than the report buffer was sized for.
func (g *Generator) TruncatedReports() uint64 {
	return g.truncatedReports.Load()
}

// Activated reports whether Activate has run.
func (g *Generator) Activated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activated
}

// Uptime returns the time elapsed since activation, or zero if the
// generator has not been activated.
func (g *Generator) Uptime() time.Duration {
	g.mu.Lock()
	activated, activatedAt := g.activated, g.activatedAt
	g.mu.Unlock()
	if !activated {
		return 0
	}
	return g.clock.Now().Sub(activatedAt)
}

// HandleRead answers one read call of a session.
//
// When offset is past zero the session has already received its
// report: HandleRead returns zero bytes with a nil error (the
// end-of-stream signal) and has no side effects.
//
// When offset is zero, HandleRead increments the read counter, renders
// a report from the current identity snapshot, and copies it into
// dest. The returned offset is the rendered length; threading it into
// the next call yields end-of-stream. A destination shorter than the
// rendered report fails with ErrBufferTooSmall; a failed copy fails
// with a *CopyFaultError. In both cases the counter increment stands:
// the counter tracks attempts, not deliveries.
func (g *Generator) HandleRead(dest []byte, offset int64) (n int, newOffset int64, err error) {
	if offset > 0 {
		return 0, offset, nil
	}

	g.mu.Lock()
	activated, activatedAt := g.activated, g.activatedAt
	g.mu.Unlock()
	if !activated {
		return 0, 0, ErrNotActivated
	}

	count := g.readCount.Add(1)

	now := g.clock.Now()
	// Whole seconds, truncated toward zero.
	uptimeSeconds := int64(now.Sub(activatedAt) / time.Second)

	rendered, truncated := render(g.params.Snapshot(), activatedAt, uptimeSeconds, count, now)
	if truncated {
		g.truncatedReports.Add(1)
	}

	if len(rendered) > len(dest) {
		return 0, 0, ErrBufferTooSmall
	}

	copied, copyErr := g.copy(dest, rendered)
	if copyErr != nil {
		return 0, 0, &CopyFaultError{Err: copyErr}
	}

	return copied, int64(len(rendered)), nil
}

// render formats the report. Field order is fixed: name, group,
// subgroup, activation timestamp, uptime, read count, current clock
// reading. Raw clock values are Unix milliseconds. Output longer than
// MaxReportSize is cut at the limit; the second return reports the
// cut.
func render(identity Identity, activatedAt time.Time, uptimeSeconds int64, count uint64, now time.Time) ([]byte, bool) {
	buffer := make([]byte, 0, MaxReportSize)
	buffer = fmt.Appendf(buffer, "Name:          %s\n", identity.Name)
	buffer = fmt.Appendf(buffer, "Group:         %d\n", identity.Group)
	buffer = fmt.Appendf(buffer, "Subgroup:      %d\n", identity.Subgroup)
	buffer = fmt.Appendf(buffer, "Activated at:  %d ms\n", activatedAt.UnixMilli())
	buffer = fmt.Appendf(buffer, "Uptime:        %d seconds\n", uptimeSeconds)
	buffer = fmt.Appendf(buffer, "Read count:    %d\n", count)
	buffer = fmt.Appendf(buffer, "Clock now:     %d ms\n", now.UnixMilli())
	if len(buffer) > MaxReportSize {
		return buffer[:MaxReportSize], true
	}
	return buffer, false
}
