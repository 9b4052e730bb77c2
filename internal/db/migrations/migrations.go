// Package migrations versions the cookbook schema with goose. The SQL lives in
// per-dialect directories embedded into the binary.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	applog "ormtour/internal/log"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

const (
	// VersionInitialSchema creates dishes and ingredients with a no-action
	// foreign key.
	VersionInitialSchema int64 = 1
	// VersionCascadeDelete makes deleting a dish delete its ingredients.
	VersionCascadeDelete int64 = 2
)

//go:embed cookbook
var cookbookFS embed.FS

// goose keeps its filesystem, dialect and logger in package globals.
var gooseMu sync.Mutex

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	applog.Info(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (gooseLogger) Fatalf(format string, v ...any) {
	applog.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
	os.Exit(1)
}

func gooseDialect(name string) (string, error) {
	switch name {
	case "postgres":
		return "postgres", nil
	case "sqlite":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("migrations: unsupported dialect %q", name)
	}
}

// run prepares goose for db and calls fn with the raw pool and the migration
// directory for its dialect.
func run(db *gorm.DB, fn func(sqlDB *sql.DB, dir string) error) error {
	if db == nil {
		return fmt.Errorf("migrations: database handle is nil")
	}

	name := db.Dialector.Name()
	dialect, err := gooseDialect(name)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("migrations: get sql db: %w", err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(cookbookFS)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	return fn(sqlDB, "cookbook/"+name)
}

// Up applies every pending migration.
func Up(ctx context.Context, db *gorm.DB) error {
	return run(db, func(sqlDB *sql.DB, dir string) error {
		if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		return nil
	})
}

// UpTo applies pending migrations up to and including version.
func UpTo(ctx context.Context, db *gorm.DB, version int64) error {
	return run(db, func(sqlDB *sql.DB, dir string) error {
		if err := goose.UpToContext(ctx, sqlDB, dir, version); err != nil {
			return fmt.Errorf("migrate up to %d: %w", version, err)
		}
		return nil
	})
}

// Down rolls back the most recently applied migration.
func Down(ctx context.Context, db *gorm.DB) error {
	return run(db, func(sqlDB *sql.DB, dir string) error {
		if err := goose.DownContext(ctx, sqlDB, dir); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		return nil
	})
}

// Version reports the currently applied schema version, 0 for an empty
// database.
func Version(ctx context.Context, db *gorm.DB) (int64, error) {
	var version int64
	err := run(db, func(sqlDB *sql.DB, _ string) error {
		v, err := goose.GetDBVersionContext(ctx, sqlDB)
		if err != nil {
			return fmt.Errorf("migration version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}
