package utils

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrateUp applies every pending migration from src (a directory of
// NNN_name.up.sql / .down.sql files). databaseURL uses the pgx5:// scheme.
// Already up to date is not an error.
func MigrateUp(src fs.FS, databaseURL string) error {
	return runMigration(src, databaseURL, func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown rolls back steps migrations.
func MigrateDown(src fs.FS, databaseURL string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("migrate: steps must be positive, got %d", steps)
	}
	return runMigration(src, databaseURL, func(m *migrate.Migrate) error { return m.Steps(-steps) })
}

// MigrationVersion reports the applied version and whether it is dirty.
func MigrationVersion(src fs.FS, databaseURL string) (uint, bool, error) {
	m, err := newMigrate(src, databaseURL)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrate(m)
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func runMigration(src fs.FS, databaseURL string, fn func(*migrate.Migrate) error) error {
	m, err := newMigrate(src, databaseURL)
	if err != nil {
		return err
	}
	defer closeMigrate(m)
	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func newMigrate(src fs.FS, databaseURL string) (*migrate.Migrate, error) {
	d, err := iofs.New(src, ".")
	if err != nil {
		return nil, fmt.Errorf("migrate: open source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", d, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("migrate: init: %w", err)
	}
	return m, nil
}

func closeMigrate(m *migrate.Migrate) {
	_, _ = m.Close()
}
