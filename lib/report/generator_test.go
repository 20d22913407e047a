// Copyright 2026 The Plaque Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/plaque-project/plaque/lib/clock"
)

func testGenerator(t *testing.T) (*Generator, *Params, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	params := NewParams("ada", 9, 2)
	generator, err := NewGenerator(Options{Params: params, Clock: fake})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if err := generator.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	return generator, params, fake
}

// readFresh performs a fresh-session read and returns the report text
// and the advanced offset.
func readFresh(t *testing.T, generator *Generator) (string, int64) {
	t.Helper()
	dest := make([]byte, MaxReportSize)
	n, newOffset, err := generator.HandleRead(dest, 0)
	if err != nil {
		t.Fatalf("HandleRead: %v", err)
	}
	if n == 0 {
		t.Fatal("HandleRead: fresh session returned no bytes")
	}
	return string(dest[:n]), newOffset
}

// reportField extracts the value of a "Label:  value" line.
func reportField(t *testing.T, body, label string) string {
	t.Helper()
	for _, line := range strings.Split(body, "\n") {
		if rest, found := strings.CutPrefix(line, label+":"); found {
			return strings.TrimSpace(rest)
		}
	}
	t.Fatalf("report field %q not found in:\n%s", label, body)
	return ""
}

func TestFreshReadRendersReport(t *testing.T) {
	t.Parallel()
	generator, _, _ := testGenerator(t)

	body, newOffset := readFresh(t, generator)

	if got := reportField(t, body, "Name"); got != "ada" {
		t.Errorf("Name: got %q, want %q", got, "ada")
	}
	if got := reportField(t, body, "Group"); got != "9" {
		t.Errorf("Group: got %q, want %q", got, "9")
	}
	if got := reportField(t, body, "Subgroup"); got != "2" {
		t.Errorf("Subgroup: got %q, want %q", got, "2")
	}
	if got := reportField(t, body, "Read count"); got != "1" {
		t.Errorf("Read count: got %q, want %q", got, "1")
	}
	if newOffset != int64(len(body)) {
		t.Errorf("new offset: got %d, want %d", newOffset, len(body))
	}
}

func TestRepeatedReadsSignalEndOfStream(t *testing.T) {
	t.Parallel()
	generator, _, _ := testGenerator(t)

	_, offset := readFresh(t, generator)

	// EOF probes at the advanced offset: no bytes, no error, no
	// counter movement, offset unchanged.
	for probe := 0; probe < 3; probe++ {
		dest := make([]byte, MaxReportSize)
		n, newOffset, err := generator.HandleRead(dest, offset)
		if err != nil {
			t.Fatalf("probe %d: HandleRead: %v", probe, err)
		}
		if n != 0 {
			t.Errorf("probe %d: got %d bytes, want 0", probe, n)
		}
		if newOffset != offset {
			t.Errorf("probe %d: offset moved from %d to %d", probe, offset, newOffset)
		}
	}
	if got := generator.ReadCount(); got != 1 {
		t.Errorf("ReadCount after EOF probes: got %d, want 1", got)
	}
}

func TestReadCountIncrementsPerSession(t *testing.T) {
	t.Parallel()
	generator, _, _ := testGenerator(t)

	for session := 1; session <= 5; session++ {
		body, _ := readFresh(t, generator)
		if got := reportField(t, body, "Read count"); got != strconv.Itoa(session) {
			t.Errorf("session %d: Read count: got %q, want %q", session, got, strconv.Itoa(session))
		}
	}
	if got := generator.ReadCount(); got != 5 {
		t.Errorf("ReadCount: got %d, want 5", got)
	}
}

func TestConcurrentFreshSessionsObserveDistinctCounts(t *testing.T) {
	t.Parallel()
	generator, _, _ := testGenerator(t)

	const sessions = 64
	counts := make([]uint64, sessions)
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			dest := make([]byte, MaxReportSize)
			n, _, err := generator.HandleRead(dest, 0)
			if err != nil {
				t.Errorf("slot %d: HandleRead: %v", slot, err)
				return
			}
			var value string
			for _, line := range strings.Split(string(dest[:n]), "\n") {
				if rest, found := strings.CutPrefix(line, "Read count:"); found {
					value = strings.TrimSpace(rest)
				}
			}
			parsed, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				t.Errorf("slot %d: parsing count %q: %v", slot, value, err)
				return
			}
			counts[slot] = parsed
		}(i)
	}
	wg.Wait()

	if got := generator.ReadCount(); got != sessions {
		t.Errorf("ReadCount: got %d, want %d", got, sessions)
	}
	seen := make(map[uint64]bool)
	for _, count := range counts {
		if seen[count] {
			t.Errorf("duplicate count %d observed: lost update", count)
		}
		seen[count] = true
		if count < 1 || count > sessions {
			t.Errorf("count %d out of range [1, %d]", count, sessions)
		}
	}
}

func TestUptimeTruncatesTowardZero(t *testing.T) {
	t.Parallel()
	generator, _, fake := testGenerator(t)

	fake.Advance(119*time.Second + 900*time.Millisecond)

	body, _ := readFresh(t, generator)
	if got := reportField(t, body, "Uptime"); got != "119 seconds" {
		t.Errorf("Uptime: got %q, want %q", got, "119 seconds")
	}
}

func TestUptimeNonDecreasingAcrossSessions(t *testing.T) {
	t.Parallel()
	generator, _, fake := testGenerator(t)

	previous := int64(-1)
	for session := 0; session < 4; session++ {
		body, _ := readFresh(t, generator)
		value := strings.TrimSuffix(reportField(t, body, "Uptime"), " seconds")
		uptime, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			t.Fatalf("parsing uptime %q: %v", value, err)
		}
		if uptime < 0 {
			t.Errorf("session %d: negative uptime %d", session, uptime)
		}
		if uptime < previous {
			t.Errorf("session %d: uptime went backwards: %d < %d", session, uptime, previous)
		}
		previous = uptime
		fake.Advance(7 * time.Second)
	}
}

func TestReconfigurationAppearsInNextReport(t *testing.T) {
	t.Parallel()
	generator, params, fake := testGenerator(t)

	fake.Advance(120 * time.Second)
	body, offset := readFresh(t, generator)
	if got := reportField(t, body, "Read count"); got != "1" {
		t.Errorf("first report Read count: got %q, want 1", got)
	}
	if got := reportField(t, body, "Uptime"); got != "120 seconds" {
		t.Errorf("first report Uptime: got %q, want %q", got, "120 seconds")
	}

	// EOF probe leaves the counter alone.
	if n, _, err := generator.HandleRead(make([]byte, MaxReportSize), offset); err != nil || n != 0 {
		t.Fatalf("EOF probe: n=%d err=%v", n, err)
	}
	if got := generator.ReadCount(); got != 1 {
		t.Errorf("ReadCount after probe: got %d, want 1", got)
	}

	// Reconfigure between sessions; no reactivation needed.
	params.SetGroup(7)

	body, _ = readFresh(t, generator)
	if got := reportField(t, body, "Group"); got != "7" {
		t.Errorf("Group after reconfigure: got %q, want 7", got)
	}
	if got := reportField(t, body, "Read count"); got != "2" {
		t.Errorf("Read count after reconfigure: got %q, want 2", got)
	}
}

func TestOverlongIdentityTruncatesAtCapacity(t *testing.T) {
	t.Parallel()
	fake := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	params := NewParams(strings.Repeat("x", 4*MaxReportSize), 9, 2)
	generator, err := NewGenerator(Options{Params: params, Clock: fake})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if err := generator.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	dest := make([]byte, 2*MaxReportSize)
	n, newOffset, err := generator.HandleRead(dest, 0)
	if err != nil {
		t.Fatalf("HandleRead: %v", err)
	}
	if n != MaxReportSize {
		t.Errorf("rendered length: got %d, want %d", n, MaxReportSize)
	}
	if newOffset != MaxReportSize {
		t.Errorf("new offset: got %d, want %d", newOffset, MaxReportSize)
	}
	if got := generator.TruncatedReports(); got != 1 {
		t.Errorf("TruncatedReports: got %d, want 1", got)
	}
}

func TestOrdinaryReportIsNotTruncated(t *testing.T) {
	t.Parallel()
	generator, _, _ := testGenerator(t)

	readFresh(t, generator)
	if got := generator.TruncatedReports(); got != 0 {
		t.Errorf("TruncatedReports: got %d, want 0", got)
	}
}

func TestBufferTooSmallCountsTheAttempt(t *testing.T) {
	t.Parallel()
	generator, _, _ := testGenerator(t)

	dest := make([]byte, 8)
	n, _, err := generator.HandleRead(dest, 0)
	if !errors.Is(err, ErrBufferTooSmall) {
		t.Fatalf("HandleRead: got err %v, want ErrBufferTooSmall", err)
	}
	if n != 0 {
		t.Errorf("bytes on failure: got %d, want 0", n)
	}
	// Attempts count, deliveries don't: the failed read is reflected.
	if got := generator.ReadCount(); got != 1 {
		t.Errorf("ReadCount after failed read: got %d, want 1", got)
	}

	// The generator remains usable for later sessions.
	body, _ := readFresh(t, generator)
	if got := reportField(t, body, "Read count"); got != "2" {
		t.Errorf("Read count after recovery: got %q, want 2", got)
	}
}

func TestCopyFaultCountsTheAttempt(t *testing.T) {
	t.Parallel()
	fake := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	faultInjected := errors.New("destination unwritable")
	shouldFault := true
	generator, err := NewGenerator(Options{
		Params: NewParams("ada", 9, 2),
		Clock:  fake,
		Copy: func(dst, src []byte) (int, error) {
			if shouldFault {
				return 0, faultInjected
			}
			return copy(dst, src), nil
		},
	})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if err := generator.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	_, _, err = generator.HandleRead(make([]byte, MaxReportSize), 0)
	var fault *CopyFaultError
	if !errors.As(err, &fault) {
		t.Fatalf("HandleRead: got err %v, want *CopyFaultError", err)
	}
	if !errors.Is(err, faultInjected) {
		t.Errorf("fault does not wrap the copy error: %v", err)
	}
	if got := generator.ReadCount(); got != 1 {
		t.Errorf("ReadCount after copy fault: got %d, want 1", got)
	}

	// Future sessions are unaffected.
	shouldFault = false
	body, _ := readFresh(t, generator)
	if got := reportField(t, body, "Read count"); got != "2" {
		t.Errorf("Read count after recovery: got %q, want 2", got)
	}
}

func TestReadBeforeActivation(t *testing.T) {
	t.Parallel()
	generator, err := NewGenerator(Options{Params: NewParams("ada", 9, 2)})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	_, _, err = generator.HandleRead(make([]byte, MaxReportSize), 0)
	if !errors.Is(err, ErrNotActivated) {
		t.Errorf("HandleRead before Activate: got err %v, want ErrNotActivated", err)
	}
	if got := generator.ReadCount(); got != 0 {
		t.Errorf("ReadCount before activation: got %d, want 0", got)
	}
}

func TestActivateIsOnce(t *testing.T) {
	t.Parallel()
	generator, _, fake := testGenerator(t)

	fake.Advance(time.Hour)
	if err := generator.Activate(); !errors.Is(err, ErrAlreadyActivated) {
		t.Fatalf("second Activate: got err %v, want ErrAlreadyActivated", err)
	}

	// The original activation timestamp is still in effect.
	if got := generator.Uptime(); got != time.Hour {
		t.Errorf("Uptime: got %v, want %v", got, time.Hour)
	}
}

func TestGeneratorRequiresParams(t *testing.T) {
	t.Parallel()
	if _, err := NewGenerator(Options{}); err == nil {
		t.Error("NewGenerator without params: got nil error")
	}
}

func TestFieldOrderIsFixed(t *testing.T) {
	t.Parallel()
	generator, _, _ := testGenerator(t)

	body, _ := readFresh(t, generator)
	labels := []string{"Name", "Group", "Subgroup", "Activated at", "Uptime", "Read count", "Clock now"}
	previous := -1
	for _, label := range labels {
		index := strings.Index(body, fmt.Sprintf("%s:", label))
		if index < 0 {
			t.Fatalf("label %q missing from report:\n%s", label, body)
		}
		if index <= previous {
			t.Errorf("label %q out of order", label)
		}
		previous = index
	}
}
