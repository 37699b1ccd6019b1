// Package migration runs versioned SQL migrations with golang-migrate.
package migration

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"

	"chartly/internal/shared/logger"
)

// Runner applies versioned SQL migrations from a directory.
type Runner struct {
	db     *gorm.DB
	path   string
	logger logger.Interface
}

func NewRunner(db *gorm.DB, path string, logger logger.Interface) *Runner {
	return &Runner{
		db:     db,
		path:   path,
		logger: logger,
	}
}

func (r *Runner) instance() (*migrate.Migrate, error) {
	sqlDB, err := r.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	driver, err := mysql.WithInstance(sqlDB, &mysql.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+r.path, "mysql", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}

// Up applies all pending migrations.
func (r *Runner) Up() error {
	m, err := r.instance()
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			r.logger.Infow("no pending migrations")
			return nil
		}
		return fmt.Errorf("migration up failed: %w", err)
	}

	r.logger.Infow("migrations applied", "path", r.path)
	return nil
}

// Down rolls back the most recent migration.
func (r *Runner) Down() error {
	m, err := r.instance()
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("migration down failed: %w", err)
	}

	r.logger.Infow("rolled back one migration", "path", r.path)
	return nil
}

// Version reports the current schema version.
func (r *Runner) Version() (uint, bool, error) {
	m, err := r.instance()
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read migration version: %w", err)
	}

	return version, dirty, nil
}
