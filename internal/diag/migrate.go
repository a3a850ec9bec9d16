package diag

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/banshee-data/mmwave.report/internal/monitoring"
)

// DefaultMigrationsDir is where the journal schema migrations live,
// relative to the repository root.
const DefaultMigrationsDir = "migrations"

// MigrateUp runs all pending migrations up to the latest version.
// Returns nil if the journal is already at the latest version.
func (j *Journal) MigrateUp(migrationsDir string) error {
	m, err := j.newMigrate(migrationsDir)
	if err != nil {
		return err
	}
	// Not closed: closing the migrate instance would close the shared
	// database connection.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	return nil
}

// MigrateDown rolls back the most recent migration.
func (j *Journal) MigrateDown(migrationsDir string) error {
	m, err := j.newMigrate(migrationsDir)
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}

	return nil
}

// MigrateVersion returns the current migration version and dirty state.
// Returns 0, false, nil before any migration has been applied.
func (j *Journal) MigrateVersion(migrationsDir string) (version uint, dirty bool, err error) {
	m, err := j.newMigrate(migrationsDir)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err = m.Version()
	if err != nil && errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}

	return version, dirty, err
}

func (j *Journal) newMigrate(migrationsDir string) (*migrate.Migrate, error) {
	absPath, err := filepath.Abs(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(j.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", absPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	m.Log = &migrateLogger{}

	return m, nil
}

// migrateLogger implements migrate.Logger.
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// FindMigrationsDir locates the migrations directory from the current
// working directory or common parent directories. Tests run from package
// directories, so the repo root is a few levels up.
func FindMigrationsDir() (string, error) {
	candidates := []string{
		DefaultMigrationsDir,
		filepath.Join("..", "..", DefaultMigrationsDir),
		filepath.Join("..", "..", "..", DefaultMigrationsDir),
	}
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("cannot find %s directory", DefaultMigrationsDir)
}
