// Package testbus wraps a running EventBus that records every dispatched
// event for assertions.
package testbus

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/colonyops/gramcheck/internal/core/eventbus"
)

// RecordedEvent is one dispatched event.
type RecordedEvent struct {
	Event   eventbus.Event
	Payload any
}

// Bus is a started EventBus with a recorder subscribed to every event.
type Bus struct {
	*eventbus.EventBus

	mu      sync.Mutex
	events  []RecordedEvent
	changed chan struct{} // closed and replaced on every record
}

// New starts a recording bus that stops when the test ends.
func New(t *testing.T) *Bus {
	t.Helper()

	tb := &Bus{
		EventBus: eventbus.New(64),
		changed:  make(chan struct{}),
	}

	tb.SubscribeActionFailed(recorder[eventbus.ActionFailedPayload](tb, eventbus.EventActionFailed))
	tb.SubscribeCorrectionApplied(recorder[eventbus.CorrectionAppliedPayload](tb, eventbus.EventCorrectionApplied))
	tb.SubscribeCorrectionRejected(recorder[eventbus.CorrectionRejectedPayload](tb, eventbus.EventCorrectionRejected))
	tb.SubscribeCorrectionRestored(recorder[eventbus.CorrectionRestoredPayload](tb, eventbus.EventCorrectionRestored))
	tb.SubscribeCorrectionsIngested(recorder[eventbus.CorrectionsIngestedPayload](tb, eventbus.EventCorrectionsIngested))
	tb.SubscribeViewUpdated(recorder[eventbus.ViewUpdatedPayload](tb, eventbus.EventViewUpdated))

	ctx, cancel := context.WithCancel(context.Background())
	go tb.Start(ctx)
	t.Cleanup(cancel)

	return tb
}

func recorder[P any](tb *Bus, event eventbus.Event) func(P) {
	return func(p P) {
		tb.mu.Lock()
		tb.events = append(tb.events, RecordedEvent{Event: event, Payload: p})
		close(tb.changed)
		tb.changed = make(chan struct{})
		tb.mu.Unlock()
	}
}

// Events returns every recorded event in dispatch order.
func (tb *Bus) Events() []RecordedEvent {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return slices.Clone(tb.events)
}

// Payloads returns the recorded payloads for event, in order.
func (tb *Bus) Payloads(event eventbus.Event) []any {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	var out []any
	for _, e := range tb.events {
		if e.Event == event {
			out = append(out, e.Payload)
		}
	}
	return out
}

// Reset forgets everything recorded so far.
func (tb *Bus) Reset() {
	tb.mu.Lock()
	tb.events = nil
	tb.mu.Unlock()
}

// WaitFor reports whether event is recorded before timeout elapses.
func (tb *Bus) WaitFor(event eventbus.Event, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		tb.mu.Lock()
		found := slices.ContainsFunc(tb.events, func(e RecordedEvent) bool { return e.Event == event })
		changed := tb.changed
		tb.mu.Unlock()

		if found {
			return true
		}

		select {
		case <-changed:
		case <-deadline.C:
			return false
		}
	}
}

// AssertPublished fails the test unless event is recorded within 500ms.
func (tb *Bus) AssertPublished(t *testing.T, event eventbus.Event) {
	t.Helper()
	if !tb.WaitFor(event, 500*time.Millisecond) {
		t.Errorf("expected event %q to be published, but it was not", event)
	}
}

// AssertNotPublished fails the test if event is recorded within wait.
func (tb *Bus) AssertNotPublished(t *testing.T, event eventbus.Event, wait time.Duration) {
	t.Helper()
	if tb.WaitFor(event, wait) {
		t.Errorf("expected event %q to not be published, but it was", event)
	}
}
