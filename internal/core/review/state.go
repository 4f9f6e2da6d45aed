// Package review tracks proposed corrections through the reviewer's decisions
// and keeps the local set consistent with the backend's authoritative list.
package review

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/gramcheck/internal/core/correction"
	"github.com/colonyops/gramcheck/internal/core/eventbus"
)

// ErrStale is returned alongside a gateway result when an ingest replaced
// the set while the call was in flight. The fresher set is kept.
var ErrStale = errors.New("response superseded by a newer ingest")

// State owns the current correction set and mediates reviewer actions
// through a gateway. Mutating actions on the same cell are serialized;
// different cells may proceed concurrently. The zero value is not usable;
// construct with New.
type State struct {
	gw     correction.Gateway
	bus    *eventbus.EventBus
	logger zerolog.Logger

	mu         sync.Mutex
	set        correction.Set
	generation uint64 // bumped by Ingest
	revision   uint64 // bumped by every change to set
	inflight   map[string]correction.Op
}

// New creates an empty review state. bus may be nil.
func New(gw correction.Gateway, bus *eventbus.EventBus, logger zerolog.Logger) *State {
	return &State{
		gw:       gw,
		bus:      bus,
		logger:   logger,
		set:      correction.NewSet(),
		inflight: make(map[string]correction.Op),
	}
}

// Snapshot returns the current correction set.
func (s *State) Snapshot() correction.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// Current returns the correction set with its revision. Revisions increase
// with every change to the set, so a subscriber holding an event payload
// can tell whether it is older than what it already shows.
func (s *State) Current() (correction.Set, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set, s.revision
}

// Status returns the lifecycle state of the correction for cellID.
func (s *State) Status(cellID string) (correction.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.set.Get(cellID)
	if !ok {
		return "", false
	}
	return c.Status(), true
}

// InFlight reports whether a mutating action for cellID is awaiting the gateway.
func (s *State) InFlight(cellID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[cellID]
	return ok
}

// Ingest validates raw and replaces the whole set with the valid records.
// Invalid records are logged and returned; they never enter the set.
func (s *State) Ingest(raw []correction.Record) []correction.ValidationError {
	next, invalid := correction.FromRecords(raw)
	s.logInvalid(invalid)

	s.mu.Lock()
	s.set = next
	s.generation++
	s.revision++
	rev := s.revision
	s.mu.Unlock()

	s.bus.PublishCorrectionsIngested(eventbus.CorrectionsIngestedPayload{
		Set:      next,
		Revision: rev,
		Dropped:  len(invalid),
	})
	return invalid
}

// CheckGrammar asks the gateway to scan sheetName and ingests the result.
func (s *State) CheckGrammar(ctx context.Context, sheetName string) (correction.ViewFragment, []correction.ValidationError, error) {
	res, err := s.gw.CheckGrammar(ctx, sheetName)
	if err != nil {
		return "", nil, s.fail(correction.OpCheckGrammar, "", err)
	}

	invalid := s.Ingest(res.Records)
	s.bus.PublishViewUpdated(eventbus.ViewUpdatedPayload{View: res.View})

	s.logger.Info().
		Str("sheet", sheetName).
		Int("corrections", len(res.Records)-len(invalid)).
		Int("dropped", len(invalid)).
		Msg("grammar check complete")

	return res.View, invalid, nil
}

// Load asks the gateway for the corrections already stored for sheetName
// and ingests them. Unlike CheckGrammar the backend keeps its reject flags.
func (s *State) Load(ctx context.Context, sheetName string) (correction.ViewFragment, []correction.ValidationError, error) {
	res, err := s.gw.ShowSheet(ctx, sheetName)
	if err != nil {
		return "", nil, s.fail(correction.OpShowSheet, "", err)
	}

	invalid := s.Ingest(res.Records)
	s.bus.PublishViewUpdated(eventbus.ViewUpdatedPayload{View: res.View})

	s.logger.Debug().
		Str("sheet", sheetName).
		Int("corrections", len(res.Records)-len(invalid)).
		Msg("stored corrections loaded")

	return res.View, invalid, nil
}

// Show requests a view focused on cellID. It does not touch the set.
func (s *State) Show(ctx context.Context, cellID string) (correction.ViewFragment, error) {
	cellID = strings.TrimSpace(cellID)
	if cellID == "" {
		return "", &correction.PreconditionError{Op: correction.OpShow, Reason: correction.ErrNotApplicable}
	}

	view, err := s.gw.ShowCell(ctx, cellID)
	if err != nil {
		return "", s.fail(correction.OpShow, cellID, err)
	}

	s.bus.PublishViewUpdated(eventbus.ViewUpdatedPayload{CellID: cellID, View: view})
	return view, nil
}

// Apply writes the pending correction for cellID into the sheet and removes
// it from the set. Rejected or unknown cells are refused with a
// PreconditionError. On gateway failure the set is unchanged.
func (s *State) Apply(ctx context.Context, cellID string) (correction.ViewFragment, error) {
	cellID = strings.TrimSpace(cellID)
	c, gen, err := s.begin(correction.OpApply, cellID, requirePending)
	if err != nil {
		return "", err
	}
	defer s.end(cellID)

	view, err := s.gw.ChangeCell(ctx, c.CellID, c.OldValue, c.NewValue)
	if err != nil {
		return "", s.fail(correction.OpApply, cellID, err)
	}

	s.mu.Lock()
	if s.generation != gen {
		cur, ok := s.set.Get(cellID)
		if !ok || !cur.SameProposal(c) {
			s.mu.Unlock()
			s.logger.Debug().Str("cell", cellID).Msg("apply response superseded by ingest")
			return view, ErrStale
		}
	}
	s.set = s.set.Without(cellID)
	s.revision++
	snap, rev := s.set, s.revision
	s.mu.Unlock()

	s.bus.PublishCorrectionApplied(eventbus.CorrectionAppliedPayload{
		Correction: c,
		View:       view,
		Set:        snap,
		Revision:   rev,
	})
	return view, nil
}

// Reject flags the correction for cellID as rejected at the backend and
// replaces the set with the backend's returned list.
func (s *State) Reject(ctx context.Context, cellID string) (correction.Set, error) {
	return s.setRejectStatus(ctx, correction.OpReject, cellID, true)
}

// UndoReject clears the rejected flag for cellID at the backend and
// replaces the set with the backend's returned list.
func (s *State) UndoReject(ctx context.Context, cellID string) (correction.Set, error) {
	return s.setRejectStatus(ctx, correction.OpUndoReject, cellID, false)
}

func (s *State) setRejectStatus(ctx context.Context, op correction.Op, cellID string, status bool) (correction.Set, error) {
	cellID = strings.TrimSpace(cellID)
	_, gen, err := s.begin(op, cellID, requireKnown)
	if err != nil {
		return s.Snapshot(), err
	}
	defer s.end(cellID)

	records, err := s.gw.SetRejectStatus(ctx, cellID, status)
	if err != nil {
		return s.Snapshot(), s.fail(op, cellID, err)
	}

	next, invalid := correction.FromRecords(records)
	s.logInvalid(invalid)

	s.mu.Lock()
	if s.generation != gen {
		cur := s.set
		s.mu.Unlock()
		s.logger.Debug().Str("cell", cellID).Str("op", string(op)).Msg("reject response superseded by ingest")
		return cur, ErrStale
	}
	s.set = next
	s.revision++
	rev := s.revision
	s.mu.Unlock()

	if status {
		s.bus.PublishCorrectionRejected(eventbus.CorrectionRejectedPayload{CellID: cellID, Set: next, Revision: rev})
	} else {
		s.bus.PublishCorrectionRestored(eventbus.CorrectionRestoredPayload{CellID: cellID, Set: next, Revision: rev})
	}
	return next, nil
}

// PostCell forwards a cell selection to the backend and returns its ack.
func (s *State) PostCell(ctx context.Context, sheetName string, row, col int) (map[string]any, error) {
	ack, err := s.gw.PostCell(ctx, sheetName, row, col)
	if err != nil {
		return nil, s.fail(correction.OpPostCell, "", err)
	}
	return ack, nil
}

type precondition func(c correction.Correction, ok bool) bool

func requirePending(c correction.Correction, ok bool) bool { return ok && !c.IsRejected }

func requireKnown(_ correction.Correction, ok bool) bool { return ok }

// begin checks the precondition for op and marks cellID in flight. The
// caller must call end when the gateway call returns.
func (s *State) begin(op correction.Op, cellID string, check precondition) (correction.Correction, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.set.Get(cellID)
	var status correction.Status
	if ok {
		status = c.Status()
	}

	if _, busy := s.inflight[cellID]; busy {
		return c, 0, &correction.PreconditionError{Op: op, Cell: cellID, Status: status, Reason: correction.ErrInFlight}
	}
	if !check(c, ok) {
		return c, 0, &correction.PreconditionError{Op: op, Cell: cellID, Status: status, Reason: correction.ErrNotApplicable}
	}

	s.inflight[cellID] = op
	return c, s.generation, nil
}

func (s *State) end(cellID string) {
	s.mu.Lock()
	delete(s.inflight, cellID)
	s.mu.Unlock()
}

func (s *State) fail(op correction.Op, cellID string, err error) error {
	gerr := &correction.GatewayError{Op: op, Cell: cellID, Err: err}
	s.logger.Error().Err(err).Str("op", string(op)).Str("cell", cellID).Msg("gateway call failed")
	s.bus.PublishActionFailed(eventbus.ActionFailedPayload{Op: op, CellID: cellID, Err: gerr})
	return gerr
}

func (s *State) logInvalid(invalid []correction.ValidationError) {
	for _, v := range invalid {
		s.logger.Warn().
			Err(v.Err).
			Int("index", v.Index).
			Str("cell", v.Record.Cell).
			Msg("dropping invalid correction")
	}
}
