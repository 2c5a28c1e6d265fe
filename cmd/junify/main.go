// Command junify migrates JUnit 4 test sources to JUnit 5.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/oxhq/junify/core"
	"github.com/oxhq/junify/db"
	"github.com/oxhq/junify/engine"
	"github.com/oxhq/junify/internal/config"
	"github.com/oxhq/junify/internal/logging"
	"github.com/oxhq/junify/providers"
	"github.com/oxhq/junify/providers/java"
	"github.com/oxhq/junify/rules/junit"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

// app carries the state shared by every subcommand
type app struct {
	configPath string
	dsn        string
	debug      bool

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "junify",
		Short:         "Migrate JUnit 4 tests to JUnit 5",
		Long:          "junify rewrites JUnit 4 annotations, runners, rules and assertions to their JUnit 5 equivalents and fixes imports.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default ./junify.yaml or $HOME/junify.yaml)")
	root.PersistentFlags().StringVar(&a.dsn, "db", "", "Journal database: a SQLite path, :memory: or a libsql:// URL")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newMigrateCmd(a),
		newRulesCmd(a),
		newApplyCmd(a),
		newRollbackCmd(a),
		newHistoryCmd(a),
		newShowCmd(a),
		newPruneCmd(a),
	)
	return root
}

// load reads the configuration and builds the logger
func (a *app) load(stderr io.Writer) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.dsn != "" {
		cfg.Database.DSN = a.dsn
	}
	if a.debug {
		cfg.Logging.Level = "debug"
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.Logging, stderr)
	return nil
}

// registry returns the JUnit rules minus disabled ones, with configured priorities
func (a *app) registry(disabled []string) (*engine.Registry, error) {
	names := append([]string{}, a.cfg.Migrate.DisabledRules...)
	names = append(names, disabled...)
	return junit.Default().Filter(names, a.cfg.Migrate.Priorities)
}

func (a *app) atomicConfig() core.AtomicWriteConfig {
	cfg := core.DefaultAtomicConfig()
	cfg.UseFsync = a.cfg.Migrate.Fsync
	return cfg
}

func (a *app) processor(reg *engine.Registry) (*core.FileProcessor, *providers.Registry) {
	migrators := providers.NewRegistry()
	migrators.Register(java.New(reg, java.WithLogger(a.logger)))
	return core.NewFileProcessor(migrators,
		core.WithWorkers(a.cfg.Migrate.Workers),
		core.WithAtomicConfig(a.atomicConfig()),
		core.WithTransactionDir(a.cfg.Migrate.TransactionDir),
		core.WithProcessorLogger(a.logger),
	), migrators
}

func (a *app) transactions() *core.TransactionManager {
	return core.NewTransactionManager(a.cfg.Migrate.TransactionDir, core.NewAtomicWriter(a.atomicConfig()))
}

// journal opens the staging journal; the returned func closes it
func (a *app) journal() (*db.Journal, func(), error) {
	conn, err := db.Connect(a.cfg.Database.DSN, a.cfg.Database.Debug || a.debug)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal %s: %w", a.cfg.Database.DSN, err)
	}
	return db.NewJournal(conn), func() { closeDB(a.logger, conn) }, nil
}

func closeDB(logger *slog.Logger, conn *gorm.DB) {
	if err := db.Close(conn); err != nil {
		logger.Warn("close journal", "error", err)
	}
}
