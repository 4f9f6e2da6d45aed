// Package eventbus provides a typed publish/subscribe event bus that carries
// review state changes to the presentation layer.
package eventbus

import "github.com/colonyops/gramcheck/internal/core/correction"

// Payloads that carry a correction.Set also carry the revision it was taken
// at. Publishing happens after the state lock is released and a full bus
// drops events, so subscribers should ignore payloads older than the last
// revision they saw and resync from the state when in doubt.

// Keep list sorted A-Z.
const (
	EventActionFailed        Event = "action.failed"
	EventCorrectionApplied   Event = "correction.applied"
	EventCorrectionRejected  Event = "correction.rejected"
	EventCorrectionRestored  Event = "correction.restored"
	EventCorrectionsIngested Event = "corrections.ingested"
	EventViewUpdated         Event = "view.updated"
)

// ActionFailedPayload is emitted when a reviewer action fails at the gateway.
type ActionFailedPayload struct {
	Op     correction.Op
	CellID string
	Err    error
}

// CorrectionAppliedPayload is emitted after a correction is written to the
// sheet and removed from the set.
type CorrectionAppliedPayload struct {
	Correction correction.Correction
	View       correction.ViewFragment
	Set        correction.Set
	Revision   uint64
}

// CorrectionRejectedPayload is emitted after the backend confirms a reject.
type CorrectionRejectedPayload struct {
	CellID   string
	Set      correction.Set
	Revision uint64
}

// CorrectionRestoredPayload is emitted after the backend confirms an undo-reject.
type CorrectionRestoredPayload struct {
	CellID   string
	Set      correction.Set
	Revision uint64
}

// CorrectionsIngestedPayload is emitted whenever the set is replaced by a
// fresh proposal list.
type CorrectionsIngestedPayload struct {
	Set      correction.Set
	Revision uint64
	Dropped  int
}

// ViewUpdatedPayload is emitted when the backend returns a new view fragment.
type ViewUpdatedPayload struct {
	CellID string
	View   correction.ViewFragment
}

func (bus *EventBus) PublishActionFailed(p ActionFailedPayload) {
	if bus == nil {
		return
	}
	bus.send(EventActionFailed, p)
}

func (bus *EventBus) SubscribeActionFailed(fn func(ActionFailedPayload)) {
	bus.subscribe(EventActionFailed, func(p any) { fn(p.(ActionFailedPayload)) })
}

func (bus *EventBus) PublishCorrectionApplied(p CorrectionAppliedPayload) {
	if bus == nil {
		return
	}
	bus.send(EventCorrectionApplied, p)
}

func (bus *EventBus) SubscribeCorrectionApplied(fn func(CorrectionAppliedPayload)) {
	bus.subscribe(EventCorrectionApplied, func(p any) { fn(p.(CorrectionAppliedPayload)) })
}

func (bus *EventBus) PublishCorrectionRejected(p CorrectionRejectedPayload) {
	if bus == nil {
		return
	}
	bus.send(EventCorrectionRejected, p)
}

func (bus *EventBus) SubscribeCorrectionRejected(fn func(CorrectionRejectedPayload)) {
	bus.subscribe(EventCorrectionRejected, func(p any) { fn(p.(CorrectionRejectedPayload)) })
}

func (bus *EventBus) PublishCorrectionRestored(p CorrectionRestoredPayload) {
	if bus == nil {
		return
	}
	bus.send(EventCorrectionRestored, p)
}

func (bus *EventBus) SubscribeCorrectionRestored(fn func(CorrectionRestoredPayload)) {
	bus.subscribe(EventCorrectionRestored, func(p any) { fn(p.(CorrectionRestoredPayload)) })
}

func (bus *EventBus) PublishCorrectionsIngested(p CorrectionsIngestedPayload) {
	if bus == nil {
		return
	}
	bus.send(EventCorrectionsIngested, p)
}

func (bus *EventBus) SubscribeCorrectionsIngested(fn func(CorrectionsIngestedPayload)) {
	bus.subscribe(EventCorrectionsIngested, func(p any) { fn(p.(CorrectionsIngestedPayload)) })
}

func (bus *EventBus) PublishViewUpdated(p ViewUpdatedPayload) {
	if bus == nil {
		return
	}
	bus.send(EventViewUpdated, p)
}

func (bus *EventBus) SubscribeViewUpdated(fn func(ViewUpdatedPayload)) {
	bus.subscribe(EventViewUpdated, func(p any) { fn(p.(ViewUpdatedPayload)) })
}
