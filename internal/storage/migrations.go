package storage

import (
	"database/sql"
	"fmt"

	"github.com/loanzzz/loanzzz/migrations"
	"github.com/pressly/goose/v3"
)

func RunMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
