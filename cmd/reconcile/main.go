package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ilc-alumni/reconcile/internal/config"
	"github.com/ilc-alumni/reconcile/internal/db"
	"github.com/ilc-alumni/reconcile/internal/history"
	"github.com/ilc-alumni/reconcile/internal/logger"
)

// app carries the state shared by every subcommand
type app struct {
	// Global flags
	cfgFile   string
	dir       string
	verbose   bool
	noHistory bool

	cfg     *config.Config
	log     *logger.Logger
	conn    *db.Connection
	tracker *history.Tracker

	stdin  io.Reader
	stdout io.Writer
}

func main() {
	a := &app{stdin: os.Stdin, stdout: os.Stdout}

	if err := run(context.Background(), a, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the command line and releases the history database and
// logger whether or not the command succeeded.
func run(ctx context.Context, a *app, args []string) error {
	defer a.teardown()

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Alumni contact reconciliation tools",
		Long: `Batch utilities that reconcile alumni contact records across CSV exports:
enrich a roster with emails, find duplicates between two files, and scrub
bounced addresses. Every file name defaults to the export names the alumni
office uses.

Run history is off by default. Set history.enabled in the config file or
RECONCILE_HISTORY_ENABLED=true to record each run in reconcile_runs.db.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML or TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&a.dir, "dir", "", "Directory that relative file names resolve against (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&a.noHistory, "no-history", false, "Do not record this run in the history database")

	rootCmd.AddCommand(createEnrichCmd(a))
	rootCmd.AddCommand(createDupCheckCmd(a))
	rootCmd.AddCommand(createEmailCheckCmd(a))
	rootCmd.AddCommand(createScrubCmd(a))
	rootCmd.AddCommand(createRunsCmd(a))
	rootCmd.AddCommand(createServeCmd(a))

	return rootCmd
}

// setup loads configuration and the logger. The history store is opened on
// demand by the commands that use it.
func (a *app) setup() error {
	if err := config.LoadEnv(a.workDir()); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if issues := cfg.Validate(); len(issues) > 0 {
		return fmt.Errorf("configuration issues found:\n\t%s", strings.Join(issues, "\n\t"))
	}
	a.cfg = cfg

	level := cfg.Logging.Level
	if a.verbose {
		level = "debug"
	}
	a.log, err = logger.New(cfg.Logging.Mode, level, cfg.Logging.Redact)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func (a *app) teardown() {
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.log.Warn("closing history database failed", "error", err)
		}
		a.conn, a.tracker = nil, nil
	}
	if a.log != nil {
		a.log.Sync()
	}
}

// openHistory connects to the history store. required=false turns failures
// into a warning and leaves the tracker nil so batch runs still proceed.
func (a *app) openHistory(ctx context.Context, required bool) error {
	if a.tracker != nil {
		return nil
	}
	if !a.cfg.History.Enabled || a.noHistory {
		if required {
			return fmt.Errorf("run history is disabled (set history.enabled or %sHISTORY_ENABLED=true)", config.EnvPrefix)
		}
		return nil
	}

	dsn := a.cfg.History.DSN
	if a.cfg.History.Driver == "sqlite" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		dsn = a.path(dsn)
	}

	conn, err := db.NewConnection(ctx, db.Options{
		Driver:         a.cfg.History.Driver,
		DSN:            dsn,
		MaxConnections: a.cfg.History.MaxConnections,
	})
	if err == nil {
		tracker := history.NewTracker(conn, a.log)
		if err = tracker.Migrate(ctx); err == nil {
			a.conn, a.tracker = conn, tracker
			return nil
		}
		conn.Close()
	}

	if required {
		return fmt.Errorf("history database unavailable: %w", err)
	}
	a.log.Warn("run history unavailable, continuing without it", "driver", a.cfg.History.Driver, "error", err)
	return nil
}

// track records fn as a run of tool when history is available
func (a *app) track(ctx context.Context, tool string, inputs map[string]string, output string, fn func() (map[string]int, error)) error {
	if err := a.openHistory(ctx, false); err != nil {
		return err
	}
	return a.tracker.Track(ctx, tool, inputs, output, fn)
}

func (a *app) workDir() string {
	if a.dir == "" {
		return "."
	}
	return a.dir
}

// path resolves a file name against --dir
func (a *app) path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(a.workDir(), name)
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.stdout, format, args...)
}
