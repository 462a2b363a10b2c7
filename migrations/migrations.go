// migrations/migrations.go

// Package migrations embeds the SQL schema and applies it with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var fs embed.FS

// Up applies every pending migration to the database at dbURL.
func Up(dbURL string) error {
	src, err := iofs.New(fs, ".")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
