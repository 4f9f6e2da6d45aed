package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger logs published events and new subscriptions at debug
// level. Dropped events go to warn and subscriber panics to error.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	bus.OnPublish(func(event Event, payload any) {
		evt := logger.Debug().Str("event", string(event))
		if cell := cellOf(payload); cell != "" {
			evt = evt.Str("cell", cell)
		}
		evt.Msg("event fired")
	})

	bus.OnSubscribe(func(event Event) {
		logger.Debug().Str("event", string(event)).Msg("subscriber registered")
	})

	bus.OnDrop(func(event Event, _ any) {
		logger.Warn().Str("event", string(event)).Msg("event dropped: buffer full")
	})

	bus.OnPanic(func(event Event, _ any, recovered any) {
		logger.Error().
			Str("event", string(event)).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}

func cellOf(payload any) string {
	switch p := payload.(type) {
	case ActionFailedPayload:
		return p.CellID
	case CorrectionAppliedPayload:
		return p.Correction.CellID
	case CorrectionRejectedPayload:
		return p.CellID
	case CorrectionRestoredPayload:
		return p.CellID
	case ViewUpdatedPayload:
		return p.CellID
	}
	return ""
}
