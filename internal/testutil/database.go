package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/bensuskins/planner/internal/database"
)

// NewTestDatabase returns a migrated in-memory database closed at the end of
// the test.
func NewTestDatabase(t *testing.T) *sql.DB {
	t.Helper()
	return openMigrated(t, ":memory:")
}

// NewFileDatabase is NewTestDatabase backed by a file in a temporary
// directory. It returns the path so callers can reopen it.
func NewFileDatabase(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "planner.db")
	return openMigrated(t, path), path
}

func openMigrated(t *testing.T, path string) *sql.DB {
	t.Helper()

	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// FixedClock returns a time source that always reports at.
func FixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
