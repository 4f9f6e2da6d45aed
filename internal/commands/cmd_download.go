package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
)

// workbookDownloader is implemented by gateways that can return the
// workbook file itself.
type workbookDownloader interface {
	DownloadWorkbook(ctx context.Context, w io.Writer) (string, error)
}

type DownloadCmd struct {
	app    *App
	output string
}

// NewDownloadCmd creates a new download command.
func NewDownloadCmd(app *App) *DownloadCmd {
	return &DownloadCmd{app: app}
}

// Register adds the download command to the application.
func (cmd *DownloadCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "download",
		Usage: "Save a copy of the backend's workbook",
		Description: `Writes the workbook under review, including applied corrections, to
--output. Without --output the name suggested by the backend is used in
the current directory.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "destination path (- for stdout)",
				TakesFile:   true,
				Destination: &cmd.output,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *DownloadCmd) run(ctx context.Context, c *cli.Command) error {
	dl, ok := cmd.app.Gateway.(workbookDownloader)
	if !ok {
		return errors.New("the configured gateway cannot download workbooks")
	}

	if cmd.output == "-" {
		_, err := dl.DownloadWorkbook(ctx, c.Root().Writer)
		return err
	}

	dir := "."
	if cmd.output != "" {
		dir = filepath.Dir(cmd.output)
	}
	tmp, err := os.CreateTemp(dir, ".gramcheck-download-*")
	if err != nil {
		return fmt.Errorf("create download file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	name, err := dl.DownloadWorkbook(ctx, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	dest := cmd.output
	if dest == "" && name != "" {
		dest = filepath.Base(name)
	}
	if dest == "" || dest == "." || dest == string(filepath.Separator) {
		dest = "workbook.xlsx"
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("save download: %w", err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Saved %s\n", dest)
	return nil
}
