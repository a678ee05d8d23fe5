package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/banshee-data/navlog/internal/monitoring"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrations returns the embedded migration files for the dialect.
func Migrations(d Dialect) (fs.FS, error) {
	return fs.Sub(migrationsFS, "migrations/"+d.Name())
}

// MigrateUp runs all pending migrations up to the latest version.
// Returns nil if no migrations were needed (already at latest version).
func (db *DB) MigrateUp() error {
	m, release, err := db.newMigrate()
	if err != nil {
		return err
	}
	defer release()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func (db *DB) MigrateDown() error {
	m, release, err := db.newMigrate()
	if err != nil {
		return err
	}
	defer release()

	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current migration version and dirty state.
// Returns 0, false, nil if no migrations have been applied yet.
func (db *DB) MigrateVersion() (version uint, dirty bool, err error) {
	m, release, err := db.newMigrate()
	if err != nil {
		return 0, false, err
	}
	defer release()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// MigrateForce forces the migration version to a specific value.
// This should only be used to recover from a dirty migration state.
func (db *DB) MigrateForce(version int) error {
	m, release, err := db.newMigrate()
	if err != nil {
		return err
	}
	defer release()

	if err := m.Force(version); err != nil {
		return fmt.Errorf("force migration to version %d failed: %w", version, err)
	}
	return nil
}

// newMigrate builds a migrate instance over db. The release func must be
// called once the instance is done; it returns any dedicated connection to
// the pool without closing db itself.
func (db *DB) newMigrate() (*migrate.Migrate, func(), error) {
	sub, err := Migrations(db.dialect)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to locate migrations: %w", err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var (
		driver  database.Driver
		release = func() {}
	)
	switch db.dialect.(type) {
	case Postgres:
		// The driver holds conn until release; db must stay open.
		ctx := context.Background()
		var conn *sql.Conn
		conn, err = db.Conn(ctx)
		if err != nil {
			break
		}
		driver, err = migratepg.WithConnection(ctx, conn, &migratepg.Config{})
		if err != nil {
			conn.Close()
			break
		}
		release = func() {
			if err := conn.Close(); err != nil {
				logf("failed to release migration connection: %v", err)
			}
		}
	case SQLite:
		// Holds no connection of its own. Never Close: it closes db.
		driver, err = migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	default:
		err = fmt.Errorf("no migration driver for %s", db.dialect.Name())
	}
	if err != nil {
		src.Close()
		return nil, nil, fmt.Errorf("failed to create %s migration driver: %w", db.dialect.Name(), err)
	}

	m, err := migrate.NewWithInstance("iofs", src, db.dialect.Name(), driver)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrateLogger{}
	return m, release, nil
}

var logf = monitoring.Prefixed("migrate")

// migrateLogger implements migrate.Logger interface
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	logf(format, v...)
}

func (migrateLogger) Verbose() bool {
	return false
}
