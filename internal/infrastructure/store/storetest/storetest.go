// Package storetest opens throwaway sqlite-backed stores for tests.
package storetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/eslsoft/kanaplay/internal/infrastructure/database"
	"github.com/eslsoft/kanaplay/internal/infrastructure/store"
)

// Open creates a migrated store in a temp directory, skipping the test when sqlite is unavailable.
func Open(t *testing.T) *store.Store {
	t.Helper()
	db := OpenDB(t)
	return store.New(db)
}

// OpenDB creates a migrated database in a temp directory.
func OpenDB(t *testing.T) *database.DB {
	t.Helper()
	RequireSQLite(t)

	dsn := "file:" + filepath.Join(t.TempDir(), "store.db") + "?_fk=1&_busy_timeout=5000"
	db, err := database.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.SQL.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// RequireSQLite skips the test when the cgo sqlite driver cannot be used.
func RequireSQLite(t *testing.T) {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	if err != nil {
		t.Skipf("sqlite driver not available: %v", err)
		return
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		t.Skipf("skipping sqlite-dependent tests: %v", err)
	}
}
