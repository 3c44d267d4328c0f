package testsupport

import (
	"context"
	"os"
	"testing"

	"github.com/Solideomyers/guests-app/internal/store"
	"github.com/Solideomyers/guests-app/migrations"
)

// NewSQLiteStore returns a migrated in-memory SQLite store closed at test end.
func NewSQLiteStore(t *testing.T, opts ...store.Option) *store.SQLStore {
	t.Helper()

	db, err := store.OpenDB(store.DriverSQLite, "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("testsupport.NewSQLiteStore: open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Up(context.Background(), db.DB, store.DriverSQLite); err != nil {
		t.Fatalf("testsupport.NewSQLiteStore: migrate: %v", err)
	}
	return store.NewSQLStore(db, opts...)
}

// NewPostgresStore returns a migrated store against TEST_DATABASE_URL with
// both tables truncated. The test is skipped when the variable is unset.
func NewPostgresStore(t *testing.T, opts ...store.Option) *store.SQLStore {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}

	db, err := store.OpenDB(store.DriverPostgres, dsn)
	if err != nil {
		t.Fatalf("testsupport.NewPostgresStore: open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := migrations.Up(ctx, db.DB, store.DriverPostgres); err != nil {
		t.Fatalf("testsupport.NewPostgresStore: migrate: %v", err)
	}
	if _, err := db.ExecContext(ctx, "TRUNCATE guests, guest_history RESTART IDENTITY"); err != nil {
		t.Fatalf("testsupport.NewPostgresStore: truncate: %v", err)
	}
	return store.NewSQLStore(db, opts...)
}
