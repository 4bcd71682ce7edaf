package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/wikirank/internal/config"
	"github.com/kailas-cloud/wikirank/internal/db"
	logpkg "github.com/kailas-cloud/wikirank/internal/logger"
	"github.com/kailas-cloud/wikirank/internal/metrics"
	"github.com/kailas-cloud/wikirank/internal/version"
)

// Exit codes.
const (
	exitOK            = 0
	exitFailure       = 1
	exitUnavailable   = 2
	exitIndexConflict = 3
	exitQuery         = 4
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	app := &app{stdout: stdout, openStore: openStore}
	root := app.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	app.finish()
	if err != nil {
		if app.logger != nil {
			app.logger.Error("command failed", zap.Error(err))
		} else {
			_, _ = fmt.Fprintln(stderr, "error:", err)
		}
	}
	return exitCode(err)
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, db.ErrIndexConflict):
		return exitIndexConflict
	case errors.Is(err, db.ErrStorageUnavailable):
		return exitUnavailable
	case errors.Is(err, db.ErrQuery):
		return exitQuery
	default:
		return exitFailure
	}
}

// app holds state shared by the subcommands. The store is acquired in
// PersistentPreRunE and released by finish.
type app struct {
	env    string
	format string

	stdout    io.Writer
	openStore func(ctx context.Context, cfg config.DatabaseConfig) (db.Store, error)

	cfg    config.Config
	logger *zap.Logger
	store  db.Store
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "wikirank",
		Short:         "Index and report on the wikirank article collection",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version.Version, version.Commit, version.Date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.env, "env", config.GetEnv(), "config environment (config/<env>.yaml)")
	root.PersistentFlags().StringVar(&a.format, "format", "", "report output format: json or csv (overrides reports.format)")

	root.AddCommand(
		a.buildIndexesCommand(),
		a.runReportsCommand(),
		a.listIndexesCommand(),
		a.checkCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.env)
	if err != nil {
		return err
	}
	if a.format != "" {
		cfg.Reports.Format = a.format
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid flags: %w", err)
		}
	}
	a.cfg = cfg

	logger, err := logpkg.NewLogger(a.env, cfg.Logging.Level)
	if err != nil {
		return err
	}
	a.logger = logger

	logger.Info("Starting wikirank",
		zap.String("command", cmd.Name()),
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("collection", cfg.Database.Collection),
	)

	metrics.Register()

	ctx := logpkg.ContextWithLogger(cmd.Context(), logger)
	cmd.SetContext(ctx)

	store, err := a.openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	a.store = store

	if cmd.Name() == "check" {
		// check reports connectivity itself
		return nil
	}
	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		return err
	}
	logger.Info("Connected to database")
	return nil
}

// finish releases the store and flushes metrics and logs.
func (a *app) finish() {
	if a.store != nil {
		a.store.Close()
	}
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil && a.logger != nil {
			a.logger.Warn("metrics textfile not written", zap.String("path", path), zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
