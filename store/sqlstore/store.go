// Package sqlstore persists identities and session audit entries in SQLite or Postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// Dialect selects the SQL driver and migration set.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) driverName() (string, error) {
	switch d {
	case SQLite:
		return "sqlite", nil
	case Postgres:
		return "pgx", nil
	}
	return "", fmt.Errorf("unsupported sql dialect %q", d)
}

// Store owns the connection pool shared by UserRepo and AuditRepo.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
}

// Open connects to dsn, applies pending migrations and returns a ready Store.
// For SQLite, ":memory:" gives a private database that lives as long as the Store.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	driver, err := dialect.driverName()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	switch dialect {
	case SQLite:
		// one writer at a time; also keeps an in-memory database on a single connection
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	case Postgres:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", dialect, err)
	}

	if dialect == SQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrateUp(dsn); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info().Str("dialect", string(dialect)).Msg("sql store ready")
	return s, nil
}

func (s *Store) migrateUp(dsn string) error {
	src, err := iofs.New(migrationFS, "migrations/"+string(s.dialect))
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	var (
		driver database.Driver
		owned  bool
	)
	switch s.dialect {
	case SQLite:
		// closing this driver would close the store's own pool
		driver, err = sqlitemigrate.WithInstance(s.db.DB, &sqlitemigrate.Config{})
	case Postgres:
		var migDB *sql.DB
		migDB, err = sql.Open("pgx", dsn)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		driver, err = pgxmigrate.WithInstance(migDB, &pgxmigrate.Config{})
		if err != nil {
			_ = migDB.Close()
		}
		owned = true
	}
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(s.dialect), driver)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if owned {
		defer func() { _, _ = m.Close() }()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Users returns the Identity Store backed by this database.
func (s *Store) Users() *UserRepo {
	return &UserRepo{db: s.db}
}

// Audit returns the Audit Record Store backed by this database.
func (s *Store) Audit() *AuditRepo {
	return &AuditRepo{db: s.db}
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
