package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"expenses/internal/backend"
	"expenses/internal/cli"
	"expenses/internal/config"
	"expenses/internal/log"
)

var (
	version   = "dev"
	overrides cli.Overrides
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "expenses",
		Short:         "Personal expense tracker",
		Long:          "Record expenses, browse them with filters, see monthly statistics and export to CSV or Google Sheets.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&overrides.Backend, "backend", "", "data backend: sqlite or memory (env DATA_BACKEND)")
	pf.StringVar(&overrides.DBPath, "db", "", "SQLite database path (env SQLITE_DB_PATH)")
	pf.StringVar(&overrides.LogLevel, "log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	pf.StringVar(&overrides.LogFormat, "log-format", "", "log format: text or json (env LOG_FORMAT)")

	root.AddCommand(
		serveCmd(),
		addCmd(),
		editCmd(),
		deleteCmd(),
		listCmd(),
		summaryCmd(),
		chartCmd(),
		exportCmd(),
		themeCmd(),
		eventsCmd(),
		sheetsAuthCmd(),
	)
	return root
}

func main() {
	cli.LoadEnvFile()

	ctx, stop := cli.SignalContext(context.Background())
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		os.Exit(1)
	}
}

// app bundles what every data command needs.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	rt     *backend.Runtime
}

// openApp loads configuration, sets up logging and opens the backend.
// The caller must Close the returned app.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := cli.LoadConfig(overrides)
	if err != nil {
		return nil, err
	}
	logger, err := cli.SetupLogger(cfg)
	if err != nil {
		return nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	rt, err := backend.Open(ctx, bcfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	return &app{cfg: cfg, logger: logger, rt: rt}, nil
}

func (a *app) Close() {
	if err := a.rt.Close(); err != nil {
		a.logger.Error("Failed to close backend", log.FieldError, err.Error())
	}
}
