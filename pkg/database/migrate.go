package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/docintake/docintake-backend/pkg/config"
	"github.com/docintake/docintake-backend/pkg/logger"
)

// Migrate applies all pending up migrations found in migrations.
// It uses its own connection so closing the migrator never touches the
// application pool.
func Migrate(cfg *config.DatabaseConfig, migrations fs.FS, log *logger.Logger) error {
	m, err := newMigrator(cfg, migrations)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	logVersion(m, log)
	return nil
}

// Rollback reverts every applied migration
func Rollback(cfg *config.DatabaseConfig, migrations fs.FS, log *logger.Logger) error {
	m, err := newMigrator(cfg, migrations)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}

	log.Info().Msg("all migrations rolled back")
	return nil
}

func newMigrator(cfg *config.DatabaseConfig, migrations fs.FS) (*migrate.Migrate, error) {
	conn, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open migration connection: %w", err)
	}

	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrations, ".")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

func logVersion(m *migrate.Migrate, log *logger.Logger) {
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Warn().Err(err).Msg("failed to read migration version")
		return
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("database migrated")
}
