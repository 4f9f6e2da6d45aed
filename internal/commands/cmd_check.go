package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/gramcheck/internal/core/diff"
)

type CheckCmd struct {
	flags *Flags
	app   *App
	sheet string
	json  bool
}

// NewCheckCmd creates a new check command.
func NewCheckCmd(flags *Flags, app *App) *CheckCmd {
	return &CheckCmd{flags: flags, app: app}
}

// Register adds the check command to the application.
func (cmd *CheckCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "check",
		Usage: "Run a grammar check over a sheet and list the proposed corrections",
		Description: `Asks the backend to check a sheet and prints pending and rejected
corrections with the changed words highlighted.

With --json the raw correction records are printed instead. That output
can be fed to apply, reject and undo-reject with -f or on stdin.

Examples:
  gramcheck check --sheet Sheet1
  gramcheck check --json > corrections.json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "sheet",
				Aliases:     []string{"s"},
				Usage:       "sheet to check (defaults to review.sheet, then the backend's current sheet)",
				Destination: &cmd.sheet,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print correction records as JSON",
				Destination: &cmd.json,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *CheckCmd) run(ctx context.Context, c *cli.Command) error {
	state := cmd.app.NewState()
	_, invalid, err := state.CheckGrammar(ctx, sheetOrDefault(cmd.flags, cmd.sheet))
	if err != nil {
		return err
	}

	set := state.Snapshot()
	w := c.Root().Writer

	if cmd.json {
		return writeJSON(w, c.Root().ErrWriter, set.Records())
	}

	printSet(w, diff.NewMemo(memoSize(cmd.flags)), set)
	if len(invalid) > 0 {
		_, _ = fmt.Fprintf(w, "%d invalid correction(s) dropped\n", len(invalid))
	}
	return nil
}

// sheetOrDefault falls back to review.sheet. An empty result lets the
// backend pick its current sheet.
func sheetOrDefault(flags *Flags, sheet string) string {
	if sheet == "" && flags.Config != nil {
		return flags.Config.Review.Sheet
	}
	return sheet
}

func memoSize(flags *Flags) int {
	if flags.Config == nil {
		return 0
	}
	return flags.Config.Review.MemoSize
}
