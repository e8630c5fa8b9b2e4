// cmd/areactl/migrate.go
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguemap/internal/db"
)

// runMigrate applies command to the database at dbPath. An empty
// migrationsDir uses the migrations embedded in the binary.
func runMigrate(dbPath, migrationsDir, command string) error {
	absDB, err := filepath.Abs(dbPath)
	if err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absDB), 0755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	databaseURL := fmt.Sprintf("sqlite3://%s", absDB)

	m, err := newMigrate(databaseURL, migrationsDir)
	if err != nil {
		return err
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("run migrations: %w", err)
		}
		log.Info().Msg("Successfully ran migrations up")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("rollback migrations: %w", err)
		}
		log.Info().Msg("Successfully ran migrations down")
	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("get version: %w", err)
		}
		fmt.Printf("Version: %d, Dirty: %v\n", version, dirty)
	default:
		return fmt.Errorf("unknown migrate command: %s", command)
	}
	return nil
}

func newMigrate(databaseURL, migrationsDir string) (*migrate.Migrate, error) {
	if migrationsDir != "" {
		absMigrations, err := filepath.Abs(migrationsDir)
		if err != nil {
			return nil, fmt.Errorf("invalid migrations path: %w", err)
		}
		if _, err := os.Stat(absMigrations); os.IsNotExist(err) {
			return nil, fmt.Errorf("migrations directory does not exist: %s", absMigrations)
		}
		m, err := migrate.New("file://"+absMigrations, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("create migrate instance: %w", err)
		}
		return m, nil
	}

	source, err := iofs.New(db.Migrations(), ".")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}
