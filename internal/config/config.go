package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultPath       = "appsettings.json"
	DefaultConnection = "DefaultConnection"
)

var (
	ErrMissingConnection = errors.New("connection string not configured")
	ErrUnknownDriver     = errors.New("unknown database driver")
)

// Config captures the runtime configuration for the demo programs.
type Config struct {
	ConnectionStrings map[string]string `koanf:"ConnectionStrings"`
	Database          DatabaseConfig    `koanf:"Database"`
	Logging           LoggingConfig     `koanf:"Logging"`
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	Driver          string        `koanf:"Driver"`
	Connection      string        `koanf:"Connection"`
	URL             string        `koanf:"URL"`
	LogSQL          bool          `koanf:"LogSQL"`
	UseMock         bool          `koanf:"UseMock"`
	MaxIdleConns    int           `koanf:"MaxIdleConns"`
	MaxOpenConns    int           `koanf:"MaxOpenConns"`
	ConnMaxLifetime time.Duration `koanf:"ConnMaxLifetime"`
	ConnMaxIdleTime time.Duration `koanf:"ConnMaxIdleTime"`
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	Level string `koanf:"Level"`
}

// envKeys maps supported environment variables onto settings keys.
var envKeys = map[string]string{
	"DATABASE_URL":                "Database.URL",
	"DATABASE_DRIVER":             "Database.Driver",
	"DATABASE_CONNECTION":         "Database.Connection",
	"DATABASE_LOG_SQL":            "Database.LogSQL",
	"DATABASE_USE_MOCK":           "Database.UseMock",
	"DATABASE_MAX_IDLE_CONNS":     "Database.MaxIdleConns",
	"DATABASE_MAX_OPEN_CONNS":     "Database.MaxOpenConns",
	"DATABASE_CONN_MAX_LIFETIME":  "Database.ConnMaxLifetime",
	"DATABASE_CONN_MAX_IDLE_TIME": "Database.ConnMaxIdleTime",
	"LOG_LEVEL":                   "Logging.Level",
}

// Load reads the JSON settings file at path, applies environment overrides
// and resolves the configured connection string. The settings file is
// required.
func Load(path string) (Config, error) {
	path = firstNonEmpty(path, DefaultPath)
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("locate settings file: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"Database.Driver":     DriverPostgres,
		"Database.Connection": DefaultConnection,
		"Logging.Level":       "info",
	}, "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return Config{}, fmt.Errorf("read settings file %s: %w", path, err)
	}

	if err := k.Load(env.Provider("", ".", func(key string) string {
		value, ok := envKeys[key]
		if !ok || strings.TrimSpace(os.Getenv(key)) == "" {
			return ""
		}
		return value
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode settings: %w", err)
	}

	if err := cfg.resolve(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) resolve() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Database.Driver)
	}

	name := firstNonEmpty(c.Database.Connection, DefaultConnection)
	c.Database.Connection = name
	c.Database.URL = firstNonEmpty(c.Database.URL, c.ConnectionStrings[name])

	if strings.TrimSpace(c.Database.URL) == "" && !c.Database.UseMock {
		return fmt.Errorf("%w: ConnectionStrings.%s", ErrMissingConnection, name)
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
