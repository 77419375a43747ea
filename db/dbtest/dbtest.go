// Package dbtest provides migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"moodmusic/db"
)

// New returns a migrated SQLite in-memory database that is closed when the
// test ends. The pool holds a single connection so every query sees the same
// memory database.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(sqlite.Open(":memory:"), false)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(gdb); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })
	return gdb
}
