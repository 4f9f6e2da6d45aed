package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/gramcheck/internal/core/logging"
	"github.com/colonyops/gramcheck/internal/data/db"
	"github.com/colonyops/gramcheck/internal/data/stores"
	"github.com/colonyops/gramcheck/internal/server"
	"github.com/colonyops/gramcheck/internal/sheet"
	"github.com/colonyops/gramcheck/pkg/profiler"
)

const shutdownTimeout = 5 * time.Second

type ServeCmd struct {
	flags    *Flags
	workbook string
	addr     string
	pprof    string
}

// NewServeCmd creates a new serve command.
func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

// Register adds the serve command to the application.
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "serve",
		Usage: "Serve a local workbook as a correction backend",
		Description: `Starts the reference backend over a local .xlsx workbook. Corrections are
proposed from the configured server.replacements table and their history is
kept in the data directory.

Examples:
  gramcheck serve --workbook report.xlsx
  gramcheck serve --addr 127.0.0.1:8080
  gramcheck serve --pprof-addr 127.0.0.1:6060`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "workbook",
				Aliases:     []string{"w"},
				Usage:       "workbook to serve (defaults to server.workbook)",
				Destination: &cmd.workbook,
			},
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (defaults to server.addr)",
				Destination: &cmd.addr,
			},
			&cli.StringFlag{
				Name:        "pprof-addr",
				Usage:       "serve pprof endpoints on this address",
				Sources:     cli.EnvVars("GRAMCHECK_PPROF_ADDR"),
				Destination: &cmd.pprof,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config

	path := cmd.workbook
	if path == "" {
		path = cfg.Server.Workbook
	}
	if path == "" {
		return fmt.Errorf("no workbook given; pass --workbook or set server.workbook")
	}

	addr := cmd.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	wb, err := sheet.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = wb.Close() }()

	database, err := stores.OpenWithRecovery(cfg.DataDir, db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}, logging.Component("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	if v, err := database.SchemaVersion(ctx); err == nil {
		dbLog := logging.Component("db")
		dbLog.Debug().Int("schema_version", v).Str("data_dir", cfg.DataDir).Msg("database ready")
	}

	srv, err := server.New(ctx, wb, stores.NewHistoryStore(database),
		server.NewReplacementChecker(cfg.Server.Replacements),
		server.Options{
			Addr:             addr,
			OnlineURL:        cfg.Server.OnlineURL,
			IgnoreSheets:     cfg.Server.IgnoreSheets,
			HighlightApplied: cfg.Server.HighlightApplied,
			AppliedColor:     cfg.Server.AppliedColor,
		},
		logging.Component("server"),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.pprof != "" {
		prof := profiler.New(cmd.pprof, logging.Component("profiler"))
		if err := prof.Start(ctx); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = prof.Shutdown(shutdownCtx)
		}()
		_, _ = fmt.Fprintf(c.Root().Writer, "pprof on http://%s/debug/pprof/\n", prof.Addr())
	}

	if err := srv.Start(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Serving %s on http://%s (sheet %q)\n", path, srv.Addr(), srv.CurrentSheet())

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
