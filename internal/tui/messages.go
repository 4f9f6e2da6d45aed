package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/gramcheck/internal/core/correction"
	"github.com/colonyops/gramcheck/internal/core/eventbus"
)

// setChangedMsg reports that the state's set changed at revision rev. The
// panel re-reads the set from the state rather than trusting the payload.
type setChangedMsg struct {
	rev  uint64
	note string
}

// viewUpdatedMsg carries a new view fragment from the bus.
type viewUpdatedMsg struct {
	cell string
	view correction.ViewFragment
}

// actionFailedMsg reports a gateway failure published on the bus.
type actionFailedMsg struct {
	op   correction.Op
	cell string
	err  error
}

// actionDoneMsg is returned by the command that ran a reviewer action.
type actionDoneMsg struct {
	op   correction.Op
	cell string
	err  error
}

// Bridge forwards review events from bus into a Bubble Tea program through
// send, typically (*tea.Program).Send.
func Bridge(bus *eventbus.EventBus, send func(tea.Msg)) {
	if bus == nil {
		return
	}
	bus.SubscribeCorrectionsIngested(func(p eventbus.CorrectionsIngestedPayload) {
		note := "corrections loaded"
		if p.Dropped > 0 {
			note = "corrections loaded, some invalid entries dropped"
		}
		send(setChangedMsg{rev: p.Revision, note: note})
	})
	bus.SubscribeCorrectionApplied(func(p eventbus.CorrectionAppliedPayload) {
		send(setChangedMsg{rev: p.Revision, note: "applied " + p.Correction.CellID})
		send(viewUpdatedMsg{cell: p.Correction.CellID, view: p.View})
	})
	bus.SubscribeCorrectionRejected(func(p eventbus.CorrectionRejectedPayload) {
		send(setChangedMsg{rev: p.Revision, note: "rejected " + p.CellID})
	})
	bus.SubscribeCorrectionRestored(func(p eventbus.CorrectionRestoredPayload) {
		send(setChangedMsg{rev: p.Revision, note: "restored " + p.CellID})
	})
	bus.SubscribeViewUpdated(func(p eventbus.ViewUpdatedPayload) {
		send(viewUpdatedMsg{cell: p.CellID, view: p.View})
	})
	bus.SubscribeActionFailed(func(p eventbus.ActionFailedPayload) {
		send(actionFailedMsg{op: p.Op, cell: p.CellID, err: p.Err})
	})
}
