package db

import (
	"errors"
	"fmt"
	"testing"

	"ormtour/internal/config"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

func memoryConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver: config.DriverSQLite,
		URL:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()),
	}
}

func TestInitializeRequiresURL(t *testing.T) {
	t.Parallel()

	db, err := Initialize(config.DatabaseConfig{URL: ""})
	if err == nil {
		t.Fatal("expected error when database URL is empty")
	}
	if db != nil {
		t.Fatal("expected returned db handle to be nil on error")
	}
}

func TestInitializeRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Initialize(config.DatabaseConfig{Driver: "oracle", URL: "anything"})
	if !errors.Is(err, config.ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}

func TestInitializeLimitsSQLiteToOneConnection(t *testing.T) {
	t.Parallel()

	db, err := Initialize(memoryConfig())
	if err != nil {
		t.Fatalf("initialize sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	defer sqlDB.Close()

	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("expected one open connection, got %d", got)
	}
}

func TestAutoMigrateRejectsNilDatabase(t *testing.T) {
	t.Parallel()

	if err := AutoMigrate(nil); err == nil {
		t.Fatal("expected error when database handle is nil")
	}
}

func TestConfigureCreatesBrickTables(t *testing.T) {
	t.Parallel()

	db, err := Configure(memoryConfig())
	if err != nil {
		t.Fatalf("configure sqlite database: %v", err)
	}

	for _, table := range []string{"bricks", "vendors", "tags", "brick_tags", "brick_availabilities"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("expected table %s", table)
		}
	}
}

func TestConfigurePropagatesInitializationError(t *testing.T) {
	t.Parallel()

	if _, err := Configure(config.DatabaseConfig{}); err == nil {
		t.Fatal("expected configuration error when initialize fails")
	}
}

func TestFactoryHandsOutSessions(t *testing.T) {
	t.Parallel()

	factory, err := NewFactory(memoryConfig())
	if err != nil {
		t.Fatalf("new factory: %v", err)
	}
	defer factory.Close()

	if factory.Dialect() != "sqlite" {
		t.Fatalf("unexpected dialect %q", factory.Dialect())
	}
	session := factory.NewSession()
	defer session.Close()
	if session.Tracked() != 0 {
		t.Fatal("expected a fresh session to track nothing")
	}
}

func TestFailingStatementIsRejectedBySQLite(t *testing.T) {
	t.Parallel()

	factory, err := NewFactory(memoryConfig())
	if err != nil {
		t.Fatalf("new factory: %v", err)
	}
	defer factory.Close()

	err = factory.DB().Exec(FailingStatement(factory.Dialect())).Error
	if err == nil {
		t.Fatal("expected the failing statement to fail")
	}
	if !IsDatabaseError(err) {
		t.Fatalf("expected a database error, got %T: %v", err, err)
	}
}

func TestIsDatabaseError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"postgres", &pgconn.PgError{Code: "22012", Message: "division by zero"}, true},
		{"wrapped postgres", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "22012"}), true},
		{"sqlite", sqlite3.Error{Code: sqlite3.ErrError}, true},
	}
	for _, tc := range cases {
		if got := IsDatabaseError(tc.err); got != tc.want {
			t.Fatalf("%s: IsDatabaseError = %v, want %v", tc.name, got, tc.want)
		}
	}
}
