package models

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "models.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	// Auto-migrate tables
	require.NoError(t, db.AutoMigrate(ModelsToAutoMigrate()...))

	return db
}

// createTestDocument creates a document with one version of pageCount pages.
func createTestDocument(t *testing.T, db *gorm.DB, label string, pageCount int) *Document {
	t.Helper()

	doc := &Document{Label: label}
	require.NoError(t, doc.Create(db))

	v := &DocumentVersion{DocumentID: doc.ID, FileKey: "key-" + doc.UUID.String()}
	require.NoError(t, NewDocumentVersion(db, v, pageCount))

	return doc
}

func cabinetDocumentIDs(t *testing.T, db *gorm.DB, c *Cabinet) []uint {
	t.Helper()

	docs, err := c.Documents(db)
	require.NoError(t, err)

	ids := make([]uint, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids
}
