package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/gramcheck/internal/core/diff"
)

type DiffCmd struct {
	flags *Flags
	html  bool
}

// NewDiffCmd creates a new diff command.
func NewDiffCmd(flags *Flags) *DiffCmd {
	return &DiffCmd{flags: flags}
}

// Register adds the diff command to the application.
func (cmd *DiffCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "diff",
		Usage:     "Highlight the words that differ between two values",
		ArgsUsage: "OLD NEW",
		Description: `Marks every word of OLD that does not occur in NEW, and every word of NEW
that does not occur in OLD. Word order and repetition are ignored.

Output is coloured on a terminal and uses [brackets] otherwise.

Examples:
  gramcheck diff "teh cat sat" "the cat sat"
  gramcheck diff --html "teh cat" "the cat"`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "html",
				Usage:       "emit HTML with highlighted spans",
				Destination: &cmd.html,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *DiffCmd) run(_ context.Context, c *cli.Command) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected OLD and NEW, got %d argument(s)", c.NArg())
	}

	w := c.Root().Writer
	res := diff.Highlight(c.Args().Get(0), c.Args().Get(1))

	if cmd.html {
		oldMarked, newMarked := res.Render(diff.HTMLMarker{})
		_, _ = fmt.Fprintln(w, oldMarked)
		_, _ = fmt.Fprintln(w, newMarked)
		return nil
	}

	oldMarked, newMarked := res.Render(markerFor(w))
	_, _ = fmt.Fprintf(w, "- %s\n", oldMarked)
	_, _ = fmt.Fprintf(w, "+ %s\n", newMarked)
	return nil
}
