package setup

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ferdian3456/virdanengage/internal/config"
)

func RunMigration(pgURL string, t *testing.T) error {
	t.Log("Running database migrations...")

	// Get current working directory
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	// integration -> tests -> project root
	migrationPath := filepath.Join(wd, "..", "..", "db", "migrations")

	absPath, err := filepath.Abs(migrationPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	migrationURL := "file://" + absPath
	t.Logf("Migration path: %s", migrationURL)

	err = config.Migrate(migrationURL, pgURL)
	if err != nil {
		return err
	}

	t.Log("Database migrations completed successfully")
	return nil
}
