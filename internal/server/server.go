// Package server is a reference correction backend over a local workbook.
// It serves the routes the gateway client calls, keeps the sheet under
// review as session state, and persists proposed corrections.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/colonyops/gramcheck/internal/core/review"
	"github.com/colonyops/gramcheck/internal/gateway"
	"github.com/colonyops/gramcheck/internal/sheet"
)

// Options configures a Server.
type Options struct {
	Addr             string
	OnlineURL        string   // share link; empty renders HTML tables
	IgnoreSheets     []string // doublestar globs
	HighlightApplied bool
	AppliedColor     string
}

// Server serves one workbook. Handlers are safe for concurrent use.
type Server struct {
	wb      *sheet.Workbook
	history review.HistoryStore
	checker Checker
	opts    Options
	logger  zerolog.Logger

	workbookID string

	mu      sync.Mutex
	current string

	httpServer *http.Server
	listener   net.Listener
}

// New registers wb with the history store, reusing an existing record for
// the same path, and selects the first sheet not matched by IgnoreSheets.
func New(ctx context.Context, wb *sheet.Workbook, history review.HistoryStore, checker Checker, opts Options, logger zerolog.Logger) (*Server, error) {
	for _, p := range opts.IgnoreSheets {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}

	rec, err := history.GetWorkbook(ctx, wb.Path())
	if errors.Is(err, review.ErrWorkbookNotFound) {
		rec, err = history.UpsertWorkbook(ctx, wb.Path(), opts.OnlineURL, wb.Sheets())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to register workbook: %w", err)
	}

	s := &Server{
		wb:         wb,
		history:    history,
		checker:    checker,
		opts:       opts,
		logger:     logger,
		workbookID: rec.ID,
	}

	for _, name := range wb.Sheets() {
		if !s.ignored(name) {
			s.current = name
			break
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+gateway.PathCheckGrammar, s.handleCheckGrammar)
	mux.HandleFunc("POST "+gateway.PathShowSheet, s.handleShowSheet)
	mux.HandleFunc("POST "+gateway.PathShowCell, s.handleShowCell)
	mux.HandleFunc("POST "+gateway.PathChangeCell, s.handleChangeCell)
	mux.HandleFunc("POST "+gateway.PathSetRejectStatus, s.handleSetRejectStatus)
	mux.HandleFunc("POST "+gateway.PathPostCell, s.handlePostCell)
	mux.HandleFunc("GET "+gateway.PathDownload, s.handleDownload)

	s.httpServer = &http.Server{
		Handler:           s.withRequestLog(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// CurrentSheet returns the sheet under review.
func (s *Server) CurrentSheet() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Start listens on Options.Addr and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	s.logger.Info().
		Str("addr", listener.Addr().String()).
		Str("workbook", s.wb.Path()).
		Msg("starting correction server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("correction server failed to start: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down correction server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) ignored(sheetName string) bool {
	for _, p := range s.opts.IgnoreSheets {
		if ok, _ := doublestar.Match(p, sheetName); ok {
			return true
		}
	}
	return false
}

// render builds the view fragment for sheetName focused on cell.
func (s *Server) render(sheetName, cell string) (string, error) {
	if s.opts.OnlineURL != "" {
		return sheet.EmbedFrame(s.opts.OnlineURL, sheetName, cell)
	}
	rows, err := s.wb.Rows(sheetName)
	if err != nil {
		return "", err
	}
	return sheet.RenderTable(sheetName, rows, cell), nil
}
