package database

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/Vazimax/BuyMin/config"
)

// OpenTestDB creates a migrated SQLite database in a temporary directory.
// The connection is closed when the test ends.
func OpenTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := Open(context.Background(), config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "buymin-test.db"),
	}, nil)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() { Close(db) })
	return db
}
