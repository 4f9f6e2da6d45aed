package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/gramcheck/internal/core/eventbus"
	"github.com/colonyops/gramcheck/internal/core/review"
)

// Run starts the review panel in the alternate screen and blocks until the
// reviewer quits or ctx is cancelled. Events published on bus are forwarded
// to the panel; bus must be started by the caller.
func Run(ctx context.Context, state *review.State, bus *eventbus.EventBus, opts Options) error {
	p := tea.NewProgram(
		New(ctx, state, opts),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	Bridge(bus, p.Send)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run review panel: %w", err)
	}
	return nil
}
