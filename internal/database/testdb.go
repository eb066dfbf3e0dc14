package database

import (
	"path/filepath"
	"testing"

	"policybook/config"
	logg "policybook/internal/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated SQLite database in a per-test temp dir with no
// cache clients, and closes it when the test ends.
func NewTestDB(tb testing.TB) DB {
	tb.Helper()

	db := &DB{log: logg.New("database")}
	cfg := config.Config{DatabaseDbPath: filepath.Join(tb.TempDir(), "test.db")}

	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if err := db.initializeSQLiteDB(gormConfig, cfg); err != nil {
		tb.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		tb.Fatalf("failed to migrate test database: %v", err)
	}

	tb.Cleanup(func() { _ = db.Close() })
	return *db
}
