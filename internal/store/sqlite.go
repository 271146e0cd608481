// Package store persists journal entries and preferences with gorm on
// SQLite (default) or Postgres.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when an entry id does not exist.
var ErrNotFound = errors.New("entry not found")

// Store handles database operations
type Store struct {
	db    *gorm.DB
	sqlDB *sql.DB
	now   func() time.Time
}

// Config holds database configuration.
type Config struct {
	Driver   string // "sqlite" (default) or "postgres"
	Path     string // SQLite database file
	DSN      string // Postgres connection string
	LogLevel logger.LogLevel
	// Clock stamps new entries; defaults to time.Now.
	Clock func() time.Time
}

// New opens the database and applies migrations.
func New(cfg Config) (*Store, error) {
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}
	gcfg := &gorm.Config{
		Logger:      logger.Default.LogMode(cfg.LogLevel),
		PrepareStmt: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		db, err = openSQLite(cfg.Path, gcfg)
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.DSN), gcfg)
		if err != nil {
			err = fmt.Errorf("open postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Store{db: db, sqlDB: sqlDB, now: clock}, nil
}

func openSQLite(path string, gcfg *gorm.Config) (*gorm.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	sqlDB, err := sql.Open("sqlite3", path+"?_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Single writer; one connection avoids SQLITE_BUSY between pooled conns.
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("exec %q: %w", pragma, err)
		}
	}

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, gcfg)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	return db, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.sqlDB.Close()
}
