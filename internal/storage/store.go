package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/meur/vgcatalog/internal/logger"
	"github.com/pressly/goose/v3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("storage: not found")

//go:embed migrations
var migrationsFS embed.FS

type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store handles all database operations for sales and reviews.
type Store struct {
	db     *sql.DB
	driver string
	sb     sq.StatementBuilderType
}

// Open connects to the configured database and applies the embedded schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	configurePool(db, cfg)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, driver: cfg.Driver, sb: sq.StatementBuilder.PlaceholderFormat(Placeholder(cfg.Driver))}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// Placeholder returns the bind-variable style of a driver.
func Placeholder(driver string) sq.PlaceholderFormat {
	if driver == DriverPostgres {
		return sq.Dollar
	}
	return sq.Question
}

// Placeholder is the bind-variable style queries for this store must use.
func (s *Store) Placeholder() sq.PlaceholderFormat {
	return Placeholder(s.driver)
}

func buildDSN(cfg Config) (string, error) {
	switch cfg.Driver {
	case DriverSQLite:
		if cfg.DSN == "" || cfg.DSN == ":memory:" {
			return "file::memory:?_foreign_keys=on", nil
		}
		if strings.Contains(cfg.DSN, "?") {
			return cfg.DSN, nil
		}
		return cfg.DSN + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", nil
	case DriverPostgres:
		if cfg.DSN == "" {
			return "", errors.New("postgres requires a DSN")
		}
		return cfg.DSN, nil
	default:
		return "", fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

func configurePool(db *sql.DB, cfg Config) {
	if cfg.Driver == DriverSQLite && (cfg.DSN == "" || strings.Contains(cfg.DSN, ":memory:")) {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
		return
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// migrate applies the embedded migrations for the store's dialect.
func (s *Store) migrate(ctx context.Context) error {
	dir, dialect := "migrations/sqlite", goose.DialectSQLite3
	if s.driver == DriverPostgres {
		dir, dialect = "migrations/postgres", goose.DialectPostgres
	}
	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(dialect, s.db, fsys)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		logger.FromContext(ctx).Debug("Applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, opts *sql.TxOptions, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.FromContext(ctx).Warn("Transaction rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
