package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startBus(t *testing.T, buffer int) *EventBus {
	t.Helper()
	bus := New(buffer)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go bus.Start(ctx)
	return bus
}

func TestEventBus_DeliversInOrder(t *testing.T) {
	bus := startBus(t, 16)

	var (
		mu  sync.Mutex
		got []string
	)
	done := make(chan struct{})
	bus.SubscribeViewUpdated(func(p ViewUpdatedPayload) {
		mu.Lock()
		got = append(got, p.CellID)
		n := len(got)
		mu.Unlock()
		if n == 3 {
			close(done)
		}
	})

	for _, c := range []string{"A1", "A2", "A3"} {
		bus.PublishViewUpdated(ViewUpdatedPayload{CellID: c})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for events")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"A1", "A2", "A3"}, got)
}

func TestEventBus_NilIsNoop(t *testing.T) {
	var bus *EventBus
	assert.NotPanics(t, func() {
		bus.PublishActionFailed(ActionFailedPayload{CellID: "A1"})
		bus.PublishCorrectionsIngested(CorrectionsIngestedPayload{})
	})
}

func TestEventBus_DropWhenFull(t *testing.T) {
	bus := New(1) // not started

	var dropped []Event
	bus.OnDrop(func(e Event, _ any) { dropped = append(dropped, e) })

	bus.PublishViewUpdated(ViewUpdatedPayload{CellID: "A1"})
	bus.PublishActionFailed(ActionFailedPayload{CellID: "A2"})

	require.Len(t, dropped, 1)
	assert.Equal(t, EventActionFailed, dropped[0])
}

func TestEventBus_RecoversSubscriberPanic(t *testing.T) {
	bus := startBus(t, 4)

	panicked := make(chan any, 1)
	bus.OnPanic(func(_ Event, _ any, r any) { panicked <- r })

	delivered := make(chan string, 1)
	bus.SubscribeCorrectionRejected(func(CorrectionRejectedPayload) { panic("boom") })
	bus.SubscribeCorrectionRejected(func(p CorrectionRejectedPayload) { delivered <- p.CellID })

	bus.PublishCorrectionRejected(CorrectionRejectedPayload{CellID: "C3"})

	select {
	case r := <-panicked:
		assert.Equal(t, "boom", r)
	case <-time.After(time.Second):
		t.Fatal("panic hook not called")
	}
	select {
	case cell := <-delivered:
		assert.Equal(t, "C3", cell)
	case <-time.After(time.Second):
		t.Fatal("second subscriber not called")
	}
}

func TestEventBus_OnSubscribe(t *testing.T) {
	bus := New(1)
	var seen []Event
	bus.OnSubscribe(func(e Event) { seen = append(seen, e) })
	bus.SubscribeCorrectionRestored(func(CorrectionRestoredPayload) {})
	assert.Equal(t, []Event{EventCorrectionRestored}, seen)
}
