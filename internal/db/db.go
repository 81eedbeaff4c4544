// Package db opens the PostgreSQL connection pool and applies the embedded
// schema migrations. The audit repositories share one pool: the state-machine
// queries run through database/sql directly and the sqlx layers wrap the same
// handle. Migrations ship inside the binary via go:embed so a fresh deploy
// needs no external migration tooling.
package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Connect opens a PostgreSQL pool with the configured limits and verifies it
// with a ping before handing it to callers.
func Connect(dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(maxIdle)

	if err := pool.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// newMigrator builds a migrate instance over the embedded migration files.
func newMigrator(pool *sql.DB) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(pool, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migration instance: %w", err)
	}
	return m, nil
}

// RunMigrations applies ("up") or rolls back ("down") the embedded migrations.
// A schema already at the target version is not an error.
func RunMigrations(pool *sql.DB, direction string) error {
	m, err := newMigrator(pool)
	if err != nil {
		return err
	}

	var migErr error
	switch direction {
	case "up":
		migErr = m.Up()
	case "down":
		migErr = m.Down()
	default:
		return fmt.Errorf("invalid migration direction %q (must be 'up' or 'down')", direction)
	}

	if migErr != nil && !errors.Is(migErr, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", direction, migErr)
	}
	return nil
}

// GetMigrationVersion reports the current schema version. A database with no
// applied migrations yet returns version 0 without error.
func GetMigrationVersion(pool *sql.DB) (version uint, dirty bool, err error) {
	m, err := newMigrator(pool)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err = m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("migration version: %w", err)
	}
	return version, dirty, nil
}
