package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/gramcheck/internal/core/diff"
)

type ListCmd struct {
	flags *Flags
	app   *App
	sheet string
	json  bool
}

// NewListCmd creates a new list command.
func NewListCmd(flags *Flags, app *App) *ListCmd {
	return &ListCmd{flags: flags, app: app}
}

// Register adds the list command to the application.
func (cmd *ListCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "list",
		Usage: "List the corrections the backend stored for a sheet",
		Description: `Selects a sheet on the backend and prints the corrections from its
last check, reject flags included. Nothing is re-checked.

Examples:
  gramcheck list --sheet Sheet1
  gramcheck list --json > corrections.json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "sheet",
				Aliases:     []string{"s"},
				Usage:       "sheet to list (defaults to review.sheet, then the backend's current sheet)",
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

func (cmd *ListCmd) run(ctx context.Context, c *cli.Command) error {
	state := cmd.app.NewState()
	_, invalid, err := state.Load(ctx, sheetOrDefault(cmd.flags, cmd.sheet))
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
