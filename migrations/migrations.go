// Package migrations holds the versioned schema of the mapping store.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/KretovDmitry/hashlink/internal/config"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sqlite/*.sql postgres/*.sql
var fs embed.FS

// Up runs migrations of the given driver all the way up.
// It is idempotent: an up to date schema is not an error.
func Up(db *sql.DB, driverName string) error {
	var (
		dir    string
		driver database.Driver
		err    error
	)

	switch driverName {
	case config.DriverSQLite:
		dir = "sqlite"
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case config.DriverPostgres:
		dir = "postgres"
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		return fmt.Errorf("no migrations for driver %q", driverName)
	}
	if err != nil {
		return fmt.Errorf("failed to init migrate driver: %w", err)
	}

	src, err := iofs.New(fs, dir)
	if err != nil {
		return fmt.Errorf("failed to init io/fs driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driverName, driver)
	if err != nil {
		return fmt.Errorf("failed to init migrate instance: %w", err)
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
