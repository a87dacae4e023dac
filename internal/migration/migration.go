package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	budgetdomain "github.com/smallbiznis/amber/internal/budget/domain"
	ingestdomain "github.com/smallbiznis/amber/internal/ingest/domain"
	ledgerdomain "github.com/smallbiznis/amber/internal/ledger/domain"
	"gorm.io/gorm"
)

const migrationsDir = "sql"

//go:embed sql/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres schema. It is idempotent.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates the schema from the gorm models on backends the
// embedded SQL does not target.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&ledgerdomain.Entry{}, &budgetdomain.BudgetTarget{}, &ingestdomain.Batch{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Migrations lists the embedded migration files.
func Migrations() ([]string, error) {
	return fs.Glob(embeddedMigrations, migrationsDir+"/*.up.sql")
}
