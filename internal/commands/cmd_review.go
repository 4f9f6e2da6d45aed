package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/gramcheck/internal/tui"
)

type ReviewCmd struct {
	flags *Flags
	app   *App
	sheet string
	check bool
}

// NewReviewCmd creates a new review command.
func NewReviewCmd(flags *Flags, app *App) *ReviewCmd {
	return &ReviewCmd{flags: flags, app: app}
}

// Flags returns the review flags. They are also registered on the root
// command so a bare `gramcheck` opens the review panel.
func (cmd *ReviewCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sheet",
			Aliases:     []string{"s"},
			Usage:       "sheet to open (defaults to review.sheet, then the backend's current sheet)",
			Destination: &cmd.sheet,
		},
		&cli.BoolFlag{
			Name:        "check",
			Usage:       "re-run the grammar check on startup instead of loading stored corrections",
			Destination: &cmd.check,
		},
	}
}

// Register adds the review command to the application.
func (cmd *ReviewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "review",
		Usage: "Review proposed corrections interactively",
		Description: `Opens a terminal panel listing the corrections stored for a sheet,
reject flags included. Use --check to re-run the grammar check instead.

Keys:
  j/k     move
  a       apply the selected correction
  x / u   reject / undo reject
  s       ask the backend to show the cell
  c       re-run the grammar check
  r       reload the stored corrections
  v       toggle the backend's view
  q       quit`,
		Flags:  cmd.Flags(),
		Action: cmd.Run,
	})

	return app
}

// Run starts the review panel.
func (cmd *ReviewCmd) Run(ctx context.Context, _ *cli.Command) error {
	opts := tui.Options{Sheet: cmd.sheet, Check: cmd.check}
	if cmd.flags.Config != nil {
		if opts.Sheet == "" {
			opts.Sheet = cmd.flags.Config.Review.Sheet
		}
		opts.MemoSize = cmd.flags.Config.Review.MemoSize
	}
	return tui.Run(ctx, cmd.app.NewState(), cmd.app.Bus, opts)
}
