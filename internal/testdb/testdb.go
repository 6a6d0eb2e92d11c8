// Package testdb provides throwaway SQLite databases for tests.
package testdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hashicorp-forge/archivist/pkg/models"
)

// New returns a migrated SQLite database in a temporary directory. The
// database is closed when the test finishes.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "archivist.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "error opening test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps SQLite writers from racing each other.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.ModelsToAutoMigrate()...),
		"error migrating test database")

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}
