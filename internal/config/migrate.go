package config

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const defaultMigrationsURL = "file://db/migrations"

// Migrate applies every pending migration from sourceURL to databaseURL.
func Migrate(sourceURL string, databaseURL string) error {
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// RunMigrations migrates POSTGRES_URL at startup when DB_AUTO_MIGRATE is set.
func RunMigrations(config *koanf.Koanf, log *zap.Logger) {
	if !config.Bool("DB_AUTO_MIGRATE") {
		return
	}

	sourceURL := StringOr(config, "MIGRATIONS_URL", defaultMigrationsURL)

	err := Migrate(sourceURL, config.String("POSTGRES_URL"))
	if err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	log.Info("database migrations applied", zap.String("source", sourceURL))
}
