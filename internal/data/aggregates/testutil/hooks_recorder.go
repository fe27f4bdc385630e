package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/cdk-backend/internal/data/aggregates"
)

// EventKind identifies which hook produced a recorded event.
type EventKind string

const (
	KindOperation EventKind = "operation"
	KindConflict  EventKind = "conflict"
	KindRetry     EventKind = "retry"
	KindClaim     EventKind = "claim"
)

// Event is one hook call. For claims Name carries the mode and Status the
// outcome.
type Event struct {
	Kind     EventKind
	Name     string
	Status   string
	Duration time.Duration
}

// HooksRecorder keeps every hook call in arrival order. Safe for use from
// concurrent claim goroutines.
type HooksRecorder struct {
	mu     sync.Mutex
	events []Event
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) record(e Event) {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
}

func (h *HooksRecorder) ObserveOperation(name, status string, dur time.Duration) {
	h.record(Event{Kind: KindOperation, Name: name, Status: status, Duration: dur})
}

func (h *HooksRecorder) IncConflict(name string) { h.record(Event{Kind: KindConflict, Name: name}) }

func (h *HooksRecorder) IncRetry(name string) { h.record(Event{Kind: KindRetry, Name: name}) }

func (h *HooksRecorder) ObserveClaim(mode, outcome string) {
	h.record(Event{Kind: KindClaim, Name: mode, Status: outcome})
}

// Events returns a copy of everything recorded so far.
func (h *HooksRecorder) Events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.events...)
}

// Count returns how many events of kind were recorded for name. An empty
// name matches any.
func (h *HooksRecorder) Count(kind EventKind, name string) int {
	n := 0
	for _, e := range h.Events() {
		if e.Kind == kind && (name == "" || e.Name == name) {
			n++
		}
	}
	return n
}

// ClaimOutcomes tallies recorded claim outcomes across modes.
func (h *HooksRecorder) ClaimOutcomes() map[string]int {
	out := map[string]int{}
	for _, e := range h.Events() {
		if e.Kind == KindClaim {
			out[e.Status]++
		}
	}
	return out
}

// Reset drops recorded events.
func (h *HooksRecorder) Reset() {
	h.mu.Lock()
	h.events = nil
	h.mu.Unlock()
}
