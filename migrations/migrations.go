// Package migrations embeds the SQL schema for each supported dialect so it
// can be applied through the goose provider API at startup and in tests.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// FS holds the per-dialect migration directories.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

var dialects = map[string]goose.Dialect{
	"postgres": goose.DialectPostgres,
	"sqlite":   goose.DialectSQLite3,
}

// Up applies every pending migration for driver ("postgres" or "sqlite").
func Up(ctx context.Context, db *sql.DB, driver string) error {
	dialect, ok := dialects[driver]
	if !ok {
		return fmt.Errorf("migrations.Up: unsupported driver %q", driver)
	}

	dir, err := fs.Sub(FS, driver)
	if err != nil {
		return fmt.Errorf("migrations.Up: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db, dir)
	if err != nil {
		return fmt.Errorf("migrations.Up: create provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrations.Up: %w", err)
	}
	return nil
}
