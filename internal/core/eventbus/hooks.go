package eventbus

import "sync"

// hookList is an append-only list of callbacks safe for concurrent use.
type hookList[F any] struct {
	mu  sync.RWMutex
	fns []F
}

func (h *hookList[F]) add(fn F) {
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

func (h *hookList[F]) each(call func(F)) {
	h.mu.RLock()
	fns := make([]F, len(h.fns))
	copy(fns, h.fns)
	h.mu.RUnlock()

	for _, fn := range fns {
		call(fn)
	}
}

type hooks struct {
	publish   hookList[func(Event, any)]
	drop      hookList[func(Event, any)]
	subscribe hookList[func(Event)]
	panic     hookList[func(Event, any, any)]
}

// OnPublish registers fn to run after an event is enqueued. It runs on the
// publisher's goroutine.
func (bus *EventBus) OnPublish(fn func(Event, any)) { bus.hooks.publish.add(fn) }

// OnDrop registers fn to run when an event is discarded because the buffer
// is full.
func (bus *EventBus) OnDrop(fn func(Event, any)) { bus.hooks.drop.add(fn) }

// OnSubscribe registers fn to run after each new subscription.
func (bus *EventBus) OnSubscribe(fn func(Event)) { bus.hooks.subscribe.add(fn) }

// OnPanic registers fn to run with the recovered value when a subscriber
// panics. Panics inside fn itself are swallowed.
func (bus *EventBus) OnPanic(fn func(Event, any, any)) { bus.hooks.panic.add(fn) }

// send enqueues without blocking.
func (bus *EventBus) send(event Event, payload any) {
	select {
	case bus.ch <- envelope{event: event, payload: payload}:
		bus.hooks.publish.each(func(fn func(Event, any)) { fn(event, payload) })
	default:
		bus.hooks.drop.each(func(fn func(Event, any)) { fn(event, payload) })
	}
}

func (bus *EventBus) runOnSubscribe(event Event) {
	bus.hooks.subscribe.each(func(fn func(Event)) { fn(event) })
}

func (bus *EventBus) runOnPanic(event Event, payload any, recovered any) {
	bus.hooks.panic.each(func(fn func(Event, any, any)) {
		defer func() { _ = recover() }()
		fn(event, payload, recovered)
	})
}
