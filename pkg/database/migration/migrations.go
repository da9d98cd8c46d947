package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrations embed.FS

// DefaultTable records applied versions when no table is configured.
const DefaultTable = "schema_migrations_exiflab"

func Up(db *sql.DB, table string) error {
	m, err := build(db, table)
	if err != nil {
		return fmt.Errorf("failed to build database driver to run up migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run database up migrations: %w", err)
	}

	return nil
}

func Down(db *sql.DB, table string) error {
	m, err := build(db, table)
	if err != nil {
		return fmt.Errorf("failed to build database driver to run down migrations: %w", err)
	}

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run database down migrations: %w", err)
	}

	return nil
}

// Cycle runs every migration down and up again, checking both directions apply.
func Cycle(db *sql.DB, table string) error {
	if err := Down(db, table); err != nil {
		return fmt.Errorf("failed to run down migrations: %w", err)
	}

	if err := Up(db, table); err != nil {
		return fmt.Errorf("failed to run up migrations: %w", err)
	}

	return nil
}

// Version reports the applied migration version. ok is false on an empty database.
func Version(db *sql.DB, table string) (version uint, ok bool, err error) {
	m, err := build(db, table)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read migration version: %w", err)
	}
	if dirty {
		return version, true, fmt.Errorf("migration %d is dirty", version)
	}

	return version, true, nil
}

func build(db *sql.DB, table string) (*migrate.Migrate, error) {
	if table == "" {
		table = DefaultTable
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: table})
	if err != nil {
		return nil, fmt.Errorf("error creating database driver: %w", err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("error loading migrations source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("error loading migrations instance: %w", err)
	}

	return m, nil
}
