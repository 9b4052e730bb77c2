package db

import (
	"fmt"

	"ormtour/internal/config"
	"ormtour/internal/tracking"

	"gorm.io/gorm"
)

// Factory hands out sessions over one connection pool.
type Factory struct {
	db      *gorm.DB
	dialect string
}

// NewFactory opens the database described by cfg.
func NewFactory(cfg config.DatabaseConfig) (*Factory, error) {
	database, err := Initialize(cfg)
	if err != nil {
		return nil, err
	}
	return FromDB(database), nil
}

// FromDB wraps an already opened handle.
func FromDB(database *gorm.DB) *Factory {
	return &Factory{db: database, dialect: database.Dialector.Name()}
}

// NewSession starts a change-tracking session. Sessions are cheap; open one
// per procedure and close it when done.
func (f *Factory) NewSession() *tracking.Session {
	return tracking.NewSession(f.db)
}

func (f *Factory) DB() *gorm.DB {
	return f.db
}

// Dialect is the GORM dialector name, "postgres" or "sqlite".
func (f *Factory) Dialect() string {
	return f.dialect
}

// Close releases the connection pool.
func (f *Factory) Close() error {
	sqlDB, err := f.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.Close()
}
