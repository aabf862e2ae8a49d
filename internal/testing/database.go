package testing

import (
	"database/sql"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/teranos/joulebench/db"
	"github.com/teranos/joulebench/storage"
)

// CreateTestDB creates a migrated SQLite database in t's temp dir.
// A file is used rather than :memory: because every pooled connection to
// :memory: sees its own empty database.
// Automatically registers cleanup via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	handle, err := db.OpenWithMigrations("sqlite3", filepath.Join(t.TempDir(), "bench.db"), nil)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		handle.Close()
	})

	return handle
}

// CreateTestStore wraps CreateTestDB in a store that logs to t
func CreateTestStore(t *testing.T) *storage.SQLStore {
	t.Helper()
	return storage.NewSQLStore(CreateTestDB(t), db.SQLite, zaptest.NewLogger(t).Sugar())
}
