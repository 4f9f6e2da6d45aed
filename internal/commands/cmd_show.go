package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type ShowCmd struct {
	flags *Flags
	app   *App
}

// NewShowCmd creates a new show command.
func NewShowCmd(flags *Flags, app *App) *ShowCmd {
	return &ShowCmd{flags: flags, app: app}
}

// Register adds the show command to the application.
func (cmd *ShowCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "show",
		Usage:     "Print the backend's view focused on a cell",
		ArgsUsage: "CELL",
		Action:    cmd.run,
	})

	return app
}

func (cmd *ShowCmd) run(ctx context.Context, c *cli.Command) error {
	view, err := cmd.app.NewState().Show(ctx, c.Args().First())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(c.Root().Writer, view)
	return nil
}
