package fs

import (
	"sync"
	"testing"
	"time"

	"github.com/postbed/postbed/pkg/core"
)

func TestDebouncerCoalesces(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)

	var mu sync.Mutex
	var emitted []core.Event
	emit := func(e core.Event) {
		mu.Lock()
		emitted = append(emitted, e)
		mu.Unlock()
	}

	// Editor-style burst: three writes to the same file.
	for i := 0; i < 3; i++ {
		d.add(core.Event{Type: core.EventModify, ID: "2026-08-30-a"}, emit)
	}
	// Different key in the same window.
	d.add(core.Event{Type: core.EventCreate, ID: "2026-08-30-b"}, emit)

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(emitted) != 2 {
		t.Fatalf("Expected 2 events after coalescing, got %d: %+v", len(emitted), emitted)
	}
}

func TestDebouncerStopRejectsNewEvents(t *testing.T) {
	d := newDebouncer(10 * time.Millisecond)

	var mu sync.Mutex
	count := 0
	emit := func(core.Event) {
		mu.Lock()
		count++
		mu.Unlock()
	}

	d.add(core.Event{Type: core.EventModify, ID: "x"}, emit)
	d.stopAndWait(time.Second)

	// Pending timer was cancelled by stop; new adds are rejected.
	d.add(core.Event{Type: core.EventModify, ID: "y"}, emit)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Errorf("Expected no emissions after stop, got %d", count)
	}
}

func TestDebouncerWaitsForInFlight(t *testing.T) {
	d := newDebouncer(5 * time.Millisecond)

	done := make(chan struct{})
	d.add(core.Event{Type: core.EventModify, ID: "x"}, func(core.Event) {
		close(done)
	})

	// Give the timer time to fire, then stopAndWait must return promptly.
	time.Sleep(20 * time.Millisecond)
	d.stopAndWait(time.Second)

	select {
	case <-done:
	default:
		t.Error("Expected in-flight emission to complete")
	}
}
