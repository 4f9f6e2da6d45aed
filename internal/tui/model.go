// Package tui implements the Bubble Tea review panel.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/gramcheck/internal/core/correction"
	"github.com/colonyops/gramcheck/internal/core/diff"
	"github.com/colonyops/gramcheck/internal/core/review"
	"github.com/colonyops/gramcheck/internal/core/styles"
)

// Options configures the review panel.
type Options struct {
	Sheet    string // empty uses the backend's current sheet
	MemoSize int

	// Check re-runs the grammar check on startup instead of loading the
	// corrections the backend already stored for the sheet.
	Check bool
}

// Model is the review panel. Bus events and finished actions trigger a
// resync of the list from the review state; key presses run actions
// against it.
type Model struct {
	ctx   context.Context
	state *review.State
	memo  *diff.Memo
	sheet string

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	viewport viewport.Model

	items    []correction.Correction
	rev      uint64
	cursor   int
	busy     map[string]correction.Op
	checking bool
	startup  correction.Op

	view     string
	showView bool

	status    string
	statusErr bool

	width  int
	height int
}

// New creates a panel over state, seeded with its current snapshot.
func New(ctx context.Context, state *review.State, opts Options) Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = styles.InFlightStyle

	startup := correction.OpShowSheet
	if opts.Check {
		startup = correction.OpCheckGrammar
	}

	set, rev := state.Current()
	return Model{
		ctx:      ctx,
		state:    state,
		memo:     diff.NewMemo(opts.MemoSize),
		sheet:    opts.Sheet,
		keys:     defaultKeyMap(),
		help:     help.New(),
		spinner:  sp,
		viewport: viewport.New(80, 10),
		items:    set.All(),
		rev:      rev,
		busy:     make(map[string]correction.Op),
		checking: true,
		startup:  startup,
	}
}

// Init loads the sheet. New marks the panel as checking, so a check
// requested before the load finishes is ignored.
func (m Model) Init() tea.Cmd {
	if m.startup == correction.OpCheckGrammar {
		return tea.Batch(m.checkGrammar(), m.spinner.Tick)
	}
	return tea.Batch(m.loadSheet(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height/3, 3)
		return m, nil

	case spinner.TickMsg:
		if !m.working() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case setChangedMsg:
		if msg.rev < m.rev {
			return m, nil
		}
		m.sync()
		m.setStatus(msg.note, false)
		return m, nil

	case viewUpdatedMsg:
		m.view = string(msg.view)
		m.viewport.SetContent(m.view)
		return m, nil

	case actionFailedMsg:
		m.setStatus(fmt.Sprintf("%s %s failed: %v", msg.op, msg.cell, msg.err), true)
		return m, nil

	case actionDoneMsg:
		return m.handleDone(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.showView {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.ToggleView):
		m.showView = !m.showView
	case key.Matches(msg, m.keys.Check):
		if m.checking {
			return m, nil
		}
		m.checking = true
		return m, tea.Batch(m.checkGrammar(), m.spinner.Tick)
	case key.Matches(msg, m.keys.Reload):
		if m.checking {
			return m, nil
		}
		m.checking = true
		return m, tea.Batch(m.loadSheet(), m.spinner.Tick)
	case key.Matches(msg, m.keys.Apply):
		return m.startAction(correction.OpApply)
	case key.Matches(msg, m.keys.Reject):
		return m.startAction(correction.OpReject)
	case key.Matches(msg, m.keys.UndoReject):
		return m.startAction(correction.OpUndoReject)
	case key.Matches(msg, m.keys.Show):
		return m.startAction(correction.OpShow)
	}
	return m, nil
}

// startAction runs op against the selected correction. Actions on a cell
// already in flight are refused by the state and reported in the status line.
func (m Model) startAction(op correction.Op) (tea.Model, tea.Cmd) {
	c, ok := m.selected()
	if !ok {
		return m, nil
	}

	if op != correction.OpShow {
		if _, busy := m.busy[c.CellID]; !busy {
			m.busy[c.CellID] = op
		}
	}
	return m, tea.Batch(m.runAction(op, c.CellID), m.spinner.Tick)
}

func (m Model) runAction(op correction.Op, cell string) tea.Cmd {
	ctx, state := m.ctx, m.state
	return func() tea.Msg {
		var err error
		switch op {
		case correction.OpApply:
			_, err = state.Apply(ctx, cell)
		case correction.OpReject:
			_, err = state.Reject(ctx, cell)
		case correction.OpUndoReject:
			_, err = state.UndoReject(ctx, cell)
		case correction.OpShow:
			_, err = state.Show(ctx, cell)
		}
		return actionDoneMsg{op: op, cell: cell, err: err}
	}
}

func (m Model) checkGrammar() tea.Cmd {
	ctx, state, sheet := m.ctx, m.state, m.sheet
	return func() tea.Msg {
		_, _, err := state.CheckGrammar(ctx, sheet)
		return actionDoneMsg{op: correction.OpCheckGrammar, err: err}
	}
}

func (m Model) loadSheet() tea.Cmd {
	ctx, state, sheet := m.ctx, m.state, m.sheet
	return func() tea.Msg {
		_, _, err := state.Load(ctx, sheet)
		return actionDoneMsg{op: correction.OpShowSheet, err: err}
	}
}

func (m Model) handleDone(msg actionDoneMsg) Model {
	switch {
	case msg.op == correction.OpCheckGrammar || msg.op == correction.OpShowSheet:
		m.checking = false
	case !errors.Is(msg.err, correction.ErrInFlight):
		delete(m.busy, msg.cell)
	}

	// resync; bus events may have been dropped
	m.sync()

	switch {
	case msg.err == nil:
	case correction.IsGateway(msg.err):
		// reported through actionFailedMsg
	case errors.Is(msg.err, review.ErrStale):
		m.setStatus(fmt.Sprintf("%s %s: superseded by a newer check", msg.op, msg.cell), false)
	default:
		m.setStatus(msg.err.Error(), true)
	}
	return m
}

// sync replaces the list with the state's current set.
func (m *Model) sync() {
	set, rev := m.state.Current()
	m.items = set.All()
	m.rev = rev
	m.cursor = clamp(m.cursor, len(m.items))
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m Model) selected() (correction.Correction, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return correction.Correction{}, false
	}
	return m.items[m.cursor], true
}

func (m Model) working() bool {
	return m.checking || len(m.busy) > 0
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
