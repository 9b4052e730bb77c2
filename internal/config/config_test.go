package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "appsettings.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"all empty", []string{"", "   "}, ""},
		{"first non empty", []string{"foo", "bar"}, "foo"},
		{"skips whitespace", []string{"   ", "bar"}, "bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, firstNonEmpty(tt.values...))
		})
	}
}

func TestLoadReadsConnectionString(t *testing.T) {
	path := writeSettings(t, `{
		"ConnectionStrings": {"DefaultConnection": "postgres://cookbook"},
		"Database": {"MaxOpenConns": 8, "ConnMaxLifetime": "1h", "LogSQL": true}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, DefaultConnection, cfg.Database.Connection)
	assert.Equal(t, "postgres://cookbook", cfg.Database.URL)
	assert.Equal(t, 8, cfg.Database.MaxOpenConns)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.True(t, cfg.Database.LogSQL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadUsesNamedConnection(t *testing.T) {
	path := writeSettings(t, `{
		"ConnectionStrings": {"DefaultConnection": "postgres://a", "Bricks": "file:bricks.db"},
		"Database": {"Driver": "SQLite", "Connection": "Bricks"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "file:bricks.db", cfg.Database.URL)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeSettings(t, `{"ConnectionStrings": {"DefaultConnection": "postgres://file"}}`)

	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("DATABASE_MAX_IDLE_CONNS", "10")
	t.Setenv("DATABASE_CONN_MAX_IDLE_TIME", "30m")
	t.Setenv("DATABASE_USE_MOCK", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env", cfg.Database.URL)
	assert.Equal(t, 10, cfg.Database.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxIdleTime)
	assert.True(t, cfg.Database.UseMock)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRequiresSettingsFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := writeSettings(t, `{"ConnectionStrings": `)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRequiresConnectionString(t *testing.T) {
	path := writeSettings(t, `{"ConnectionStrings": {"Other": "postgres://x"}}`)

	_, err := Load(path)
	require.ErrorIs(t, err, ErrMissingConnection)
}

func TestLoadAllowsMockWithoutConnection(t *testing.T) {
	path := writeSettings(t, `{"Database": {"UseMock": true}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Database.UseMock)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := writeSettings(t, `{
		"ConnectionStrings": {"DefaultConnection": "x"},
		"Database": {"Driver": "oracle"}
	}`)

	_, err := Load(path)
	require.ErrorIs(t, err, ErrUnknownDriver)
}
