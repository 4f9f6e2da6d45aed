package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/colonyops/gramcheck/internal/core/correction"
	"github.com/colonyops/gramcheck/internal/core/logging"
	"github.com/colonyops/gramcheck/internal/core/review"
	"github.com/colonyops/gramcheck/internal/gateway"
	"github.com/colonyops/gramcheck/internal/sheet"
	"github.com/colonyops/gramcheck/pkg/iojson"
)

const maxRequestBody = 1 << 20

var errNoSheet = errors.New("no sheet selected")

func (s *Server) handleCheckGrammar(w http.ResponseWriter, r *http.Request) {
	var req correction.CheckGrammarRequest
	if !s.decode(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.SheetName)
	if name == "" {
		name = s.CurrentSheet()
	}
	if !s.wb.HasSheet(name) {
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("%w: %q", sheet.ErrNoSuchSheet, name))
		return
	}
	if s.ignored(name) {
		s.writeError(w, r, http.StatusUnprocessableEntity, fmt.Errorf("sheet %q is ignored", name))
		return
	}

	ctx := logging.WithSheet(r.Context(), name)

	rows, err := s.wb.Rows(name)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	checked, err := s.checker.Check(ctx, rows)
	if err != nil {
		s.writeError(w, r, http.StatusBadGateway, fmt.Errorf("failed to check sheet: %w", err))
		return
	}

	changes := sheet.Changes(rows, checked)
	entries := make([]review.Entry, len(changes))
	results := make([]correction.Record, len(changes))
	for i, c := range changes {
		entries[i] = review.Entry{Sheet: name, Row: c.Row, Col: c.Col, OldValue: c.OldValue, NewValue: c.NewValue}
		results[i] = correction.Record{Cell: c.Cell, OldValue: c.OldValue, NewValue: c.NewValue}
	}

	if err := s.history.ReplaceSheet(ctx, s.workbookID, name, entries); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	view, err := s.render(name, "")
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	s.mu.Lock()
	s.current = name
	s.mu.Unlock()

	s.logger.Info().Ctx(ctx).Int("corrections", len(results)).Msg("grammar check complete")
	s.writeJSON(w, correction.CheckGrammarResponse{IFrame: view, Results: results})
}

func (s *Server) handleShowSheet(w http.ResponseWriter, r *http.Request) {
	var req correction.ShowSheetRequest
	if !s.decode(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.SheetName)
	if name == "" {
		name = s.CurrentSheet()
	}
	if !s.wb.HasSheet(name) {
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("%w: %q", sheet.ErrNoSuchSheet, name))
		return
	}
	if s.ignored(name) {
		s.writeError(w, r, http.StatusUnprocessableEntity, fmt.Errorf("sheet %q is ignored", name))
		return
	}

	ctx := logging.WithSheet(r.Context(), name)

	records, err := s.sheetRecords(ctx, name)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	view, err := s.render(name, "")
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	s.mu.Lock()
	s.current = name
	s.mu.Unlock()

	s.writeJSON(w, correction.ShowSheetResponse{IFrame: view, CurrentSheetName: name, CorrectionResults: records})
}

func (s *Server) handleShowCell(w http.ResponseWriter, r *http.Request) {
	var req correction.ShowCellRequest
	if !s.decode(w, r, &req) {
		return
	}

	cell, ok := s.parseCell(w, r, req.Cell)
	if !ok {
		return
	}

	name := s.CurrentSheet()
	if name == "" {
		s.writeError(w, r, http.StatusConflict, errNoSheet)
		return
	}

	view, err := s.render(name, cell)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, correction.ViewResponse{IFrame: view, CurrentSheetName: name})
}

func (s *Server) handleChangeCell(w http.ResponseWriter, r *http.Request) {
	var req correction.ChangeCellRequest
	if !s.decode(w, r, &req) {
		return
	}

	cell, ok := s.parseCell(w, r, req.Cell)
	if !ok {
		return
	}
	row, col, _ := sheet.FromA1(cell)

	name := s.CurrentSheet()
	if name == "" {
		s.writeError(w, r, http.StatusConflict, errNoSheet)
		return
	}
	ctx := logging.WithSheet(r.Context(), name)

	if req.OldValue != req.NewValue {
		var err error
		if s.opts.HighlightApplied {
			err = s.wb.SetCellHighlighted(name, cell, req.OldValue, req.NewValue, s.opts.AppliedColor)
		} else {
			err = s.wb.SetCell(name, cell, req.NewValue)
		}
		if err == nil {
			err = s.wb.Save()
		}
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		cl := logging.Cell(s.logger, cell)
		cl.Info().Ctx(ctx).Msg("cell updated")
	}

	if err := s.history.DeleteEntry(ctx, s.workbookID, name, row, col); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	view, err := s.render(name, cell)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, correction.ViewResponse{IFrame: view, CurrentSheetName: name})
}

func (s *Server) handleSetRejectStatus(w http.ResponseWriter, r *http.Request) {
	var req correction.SetRejectStatusRequest
	if !s.decode(w, r, &req) {
		return
	}

	cell, ok := s.parseCell(w, r, req.Cell)
	if !ok {
		return
	}
	row, col, _ := sheet.FromA1(cell)

	name := s.CurrentSheet()
	if name == "" {
		s.writeError(w, r, http.StatusConflict, errNoSheet)
		return
	}
	ctx := logging.WithSheet(r.Context(), name)

	if err := s.history.SetRejected(ctx, s.workbookID, name, row, col, req.Status); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	records, err := s.sheetRecords(ctx, name)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, correction.SetRejectStatusResponse{CorrectionResults: records})
}

// sheetRecords returns the stored corrections for a sheet as wire records.
func (s *Server) sheetRecords(ctx context.Context, name string) ([]correction.Record, error) {
	entries, err := s.history.ListSheet(ctx, s.workbookID, name)
	if err != nil {
		return nil, err
	}

	records := make([]correction.Record, 0, len(entries))
	for _, e := range entries {
		a1, err := sheet.ToA1(e.Row, e.Col)
		if err != nil {
			s.logger.Warn().Err(err).Ctx(ctx).Msg("skipping history entry with invalid coordinates")
			continue
		}
		records = append(records, correction.Record{
			Cell:     a1,
			OldValue: e.OldValue,
			NewValue: e.NewValue,
			IsReject: e.Rejected,
		})
	}
	return records, nil
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := s.wb.WriteTo(&buf); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(s.wb.Path())})
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug().Err(err).Ctx(r.Context()).Msg("download aborted")
	}
}

func (s *Server) handlePostCell(w http.ResponseWriter, r *http.Request) {
	var req correction.PostCellRequest
	if !s.decode(w, r, &req) {
		return
	}

	cell, err := sheet.ToA1(req.Row, req.Col)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	s.writeJSON(w, map[string]any{"status": "ok", "cell": cell})
}

// parseCell normalizes an A1 reference, answering 400 when it is malformed.
func (s *Server) parseCell(w http.ResponseWriter, r *http.Request, raw string) (string, bool) {
	row, col, err := sheet.FromA1(raw)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return "", false
	}
	cell, _ := sheet.ToA1(row, col)
	return cell, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to write response")
	}
}

// writeError answers with an iojson.Error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, code int, err error) {
	level := s.logger.Warn()
	if code >= http.StatusInternalServerError {
		level = s.logger.Error()
	}
	level.Err(err).Ctx(r.Context()).Str("path", r.URL.Path).Int("status", code).Msg("request failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintln(w, iojson.MarshalError(err.Error(), map[string]any{"path": r.URL.Path}))
}

// withRequestLog tags the request context with the caller's request id,
// or a fresh one, and logs each request at debug.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(gateway.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := logging.WithRequestID(r.Context(), id)
		w.Header().Set(gateway.HeaderRequestID, id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))

		s.logger.Debug().
			Ctx(ctx).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
