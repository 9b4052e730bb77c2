// Package cli wires the demos into the cookbook and bricks commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ormtour/internal/config"
	"ormtour/internal/db"
	"ormtour/internal/db/mock"
	applog "ormtour/internal/log"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	openDatabaseFunc    = db.Initialize
	newCookbookMockFunc = mock.NewCookbook
	newBricksMockFunc   = mock.NewBricks
)

var errDatabaseNotOpened = errors.New("database has not been opened")

// Program is one command line tool.
type Program struct {
	root *cobra.Command
	app  *app
}

type app struct {
	configPath string
	logSQL     bool
	useMock    bool
	out        io.Writer
	errOut     io.Writer
	newMock    func(ctx context.Context, logSQL bool) (*gorm.DB, error)
	factory    *db.Factory
}

func newRoot(a *app, use, short string) *cobra.Command {
	root := &cobra.Command{
		Use:               use,
		Short:             short,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.open,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultPath, "path to the JSON settings file")
	flags.BoolVar(&a.logSQL, "log-sql", false, "print every generated SQL statement")
	flags.BoolVar(&a.useMock, "mock", false, "run against a seeded in-memory database")
	return root
}

// open loads the configuration and connects to the configured database, or
// to a seeded in-memory one when the mock database is requested.
func (a *app) open(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" {
		return nil
	}
	ctx := cmd.Context()

	cfg, err := loadConfigFunc(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		return fmt.Errorf("set log level: %w", err)
	}

	if a.logSQL {
		cfg.Database.LogSQL = true
	}
	if a.useMock {
		cfg.Database.UseMock = true
	}

	var database *gorm.DB
	if cfg.Database.UseMock {
		applog.Info(ctx, "using mock database")
		database, err = a.newMock(ctx, cfg.Database.LogSQL)
	} else {
		applog.Debug(ctx, "opening database", "driver", cfg.Database.Driver)
		database, err = openDatabaseFunc(cfg.Database)
	}
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	a.factory = db.FromDB(database)
	return nil
}

func (a *app) db() (*db.Factory, error) {
	if a.factory == nil {
		return nil, errDatabaseNotOpened
	}
	return a.factory, nil
}

// Execute runs the program with args and returns the process exit code.
func (p *Program) Execute(ctx context.Context, args []string) int {
	p.root.SetArgs(args)
	err := p.root.ExecuteContext(ctx)

	if p.app.factory != nil {
		if closeErr := p.app.factory.Close(); closeErr != nil {
			applog.Warn(ctx, "close database", "err", closeErr)
		}
		p.app.factory = nil
	}

	if err != nil {
		applog.Error(ctx, "command failed", "command", p.root.Name(), "err", err)
		_, _ = fmt.Fprintf(p.app.errOut, "%s failed: %v\n", p.root.Name(), err)
		return 1
	}
	return 0
}
