package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/gramcheck/internal/commands"
	"github.com/colonyops/gramcheck/internal/core/config"
	"github.com/colonyops/gramcheck/internal/core/eventbus"
	"github.com/colonyops/gramcheck/internal/core/logging"
	"github.com/colonyops/gramcheck/internal/core/styles"
	"github.com/colonyops/gramcheck/internal/gateway"
	"github.com/colonyops/gramcheck/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, build() falls back
	// to runtime/debug.BuildInfo.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		busCancel context.CancelFunc
		app       = &commands.App{}
	)

	flags := &commands.Flags{}

	root := &cli.Command{
		Name:      "gramcheck",
		Usage:     "Review grammar corrections proposed for a spreadsheet",
		UsageText: "gramcheck [global options] command [command options]",
		Description: `gramcheck walks a reviewer through the corrections a grammar backend
proposes for the cells of a spreadsheet. Each correction can be applied,
rejected, or restored after a rejection.

Run 'gramcheck' with no arguments to open the interactive review panel.
Run 'gramcheck serve' to serve a local workbook as the backend.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("GRAMCHECK_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file",
				Sources:     cli.EnvVars("GRAMCHECK_LOG_FILE"),
				Value:       commands.DefaultLogFile(),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("GRAMCHECK_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("GRAMCHECK_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "gateway",
				Usage:       "correction backend base URL (overrides gateway.base_url)",
				Sources:     cli.EnvVars("GRAMCHECK_GATEWAY"),
				Destination: &flags.GatewayURL,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; the TUI owns the terminal.
			logFile := flags.LogFile
			if logFile == "" {
				logFile = commands.DefaultLogFile()
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if flags.GatewayURL != "" {
				cfg.Gateway.BaseURL = flags.GatewayURL
			}
			flags.Config = cfg

			// Validation ensures the theme name is known.
			palette, _ := styles.GetPalette(cfg.Review.Theme)
			styles.SetTheme(palette)
			styles.WithHighlight(cfg.Review.HighlightColor)

			bus := eventbus.New(64)
			eventbus.RegisterDebugLogger(bus, logging.Component("eventbus"))
			busCtx, cancel := context.WithCancel(context.Background())
			busCancel = cancel
			go bus.Start(busCtx)

			gw, err := gateway.New(cfg.Gateway.BaseURL,
				gateway.WithTimeout(cfg.Gateway.Timeout),
				gateway.WithLogger(logging.Component("gateway")),
			)
			if err != nil {
				return ctx, fmt.Errorf("create gateway client: %w", err)
			}

			// Populate the pre-allocated App (commands already hold a pointer to it)
			*app = *commands.NewApp(gw, bus)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if busCancel != nil {
				busCancel()
			}
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	reviewCmd := commands.NewReviewCmd(flags, app)

	root = reviewCmd.Register(root)
	root = commands.NewCheckCmd(flags, app).Register(root)
	root = commands.NewListCmd(flags, app).Register(root)
	root = commands.NewShowCmd(flags, app).Register(root)
	root = commands.NewApplyCmd(flags, app).Register(root)
	root = commands.NewRejectCmd(flags, app).Register(root)
	root = commands.NewUndoRejectCmd(flags, app).Register(root)
	root = commands.NewDownloadCmd(app).Register(root)
	root = commands.NewDiffCmd(flags).Register(root)
	root = commands.NewServeCmd(flags).Register(root)
	root = commands.NewConfigValidateCmd(flags).Register(root)

	// Register review flags on root command
	root.Flags = append(root.Flags, reviewCmd.Flags()...)

	// Open the review panel when no subcommand is provided
	root.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'gramcheck --help' for usage", c.Args().First())
		}
		return reviewCmd.Run(ctx, c)
	}

	exitCode := 0
	if err := root.Run(ctx, os.Args); err != nil {
		fmt.Println()
		fmt.Println(err.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
