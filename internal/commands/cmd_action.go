package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/gramcheck/internal/core/correction"
	"github.com/colonyops/gramcheck/internal/core/diff"
	"github.com/colonyops/gramcheck/internal/core/review"
	"github.com/colonyops/gramcheck/pkg/iojson"
)

// ActionCmd runs one reviewer action against a correction list read from a
// file or stdin, as printed by `check --json`, or against the list the
// backend stored for a sheet.
type ActionCmd struct {
	flags  *Flags
	app    *App
	op     correction.Op
	fr     *iojson.FileReader[[]correction.Record]
	json   bool
	stored bool
	sheet  string
}

func newActionCmd(flags *Flags, app *App, op correction.Op) *ActionCmd {
	return &ActionCmd{
		flags: flags,
		app:   app,
		op:    op,
		fr:    &iojson.FileReader[[]correction.Record]{},
	}
}

// NewApplyCmd creates the apply command.
func NewApplyCmd(flags *Flags, app *App) *ActionCmd {
	return newActionCmd(flags, app, correction.OpApply)
}

// NewRejectCmd creates the reject command.
func NewRejectCmd(flags *Flags, app *App) *ActionCmd {
	return newActionCmd(flags, app, correction.OpReject)
}

// NewUndoRejectCmd creates the undo-reject command.
func NewUndoRejectCmd(flags *Flags, app *App) *ActionCmd {
	return newActionCmd(flags, app, correction.OpUndoReject)
}

// Register adds the action command to the application.
func (cmd *ActionCmd) Register(app *cli.Command) *cli.Command {
	name, usage := cmd.describe()
	app.Commands = append(app.Commands, &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "CELL",
		Description: fmt.Sprintf(`Reads the current correction list from -f or stdin, runs %s on CELL,
and prints the resulting list. With --stored the list is loaded from the
backend's history for --sheet instead.

Examples:
  gramcheck check --json | gramcheck %s B2 --json
  gramcheck %s --stored --sheet Sheet1 B2`, name, name, name),
		Flags: []cli.Flag{
			cmd.fr.Flag(),
			&cli.BoolFlag{
				Name:        "stored",
				Usage:       "load the corrections the backend stored instead of reading JSON",
				Destination: &cmd.stored,
			},
			&cli.StringFlag{
				Name:        "sheet",
				Aliases:     []string{"s"},
				Usage:       "sheet to load with --stored (defaults to review.sheet)",
				Destination: &cmd.sheet,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the resulting correction records as JSON",
				Destination: &cmd.json,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ActionCmd) describe() (name, usage string) {
	switch cmd.op {
	case correction.OpReject:
		return "reject", "Reject the proposed correction for a cell"
	case correction.OpUndoReject:
		return "undo-reject", "Restore a rejected correction to pending"
	default:
		return "apply", "Write the proposed correction for a cell into the sheet"
	}
}

func (cmd *ActionCmd) run(ctx context.Context, c *cli.Command) error {
	cell := c.Args().First()
	if cell == "" {
		return fmt.Errorf("expected a CELL argument")
	}

	state := cmd.app.NewState()
	invalid, err := cmd.load(ctx, state)
	if err != nil {
		return err
	}
	if len(invalid) > 0 {
		_, _ = fmt.Fprintf(errWriter(c.Root().ErrWriter), "%d invalid correction(s) dropped\n", len(invalid))
	}

	switch cmd.op {
	case correction.OpApply:
		_, err = state.Apply(ctx, cell)
	case correction.OpReject:
		_, err = state.Reject(ctx, cell)
	case correction.OpUndoReject:
		_, err = state.UndoReject(ctx, cell)
	}
	if err != nil {
		return err
	}

	w := c.Root().Writer
	set := state.Snapshot()
	if cmd.json {
		return writeJSON(w, c.Root().ErrWriter, set.Records())
	}

	printSet(w, diff.NewMemo(memoSize(cmd.flags)), set)
	return nil
}

func (cmd *ActionCmd) load(ctx context.Context, state *review.State) ([]correction.ValidationError, error) {
	if cmd.stored {
		_, invalid, err := state.Load(ctx, sheetOrDefault(cmd.flags, cmd.sheet))
		return invalid, err
	}

	records, err := cmd.fr.Read()
	if err != nil {
		return nil, fmt.Errorf("read corrections: %w", err)
	}
	return state.Ingest(records), nil
}
