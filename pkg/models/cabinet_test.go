package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCabinet_Create(t *testing.T) {
	db := setupTestDB(t)

	t.Run("valid label", func(t *testing.T) {
		c := &Cabinet{Label: "Invoices"}
		require.NoError(t, c.Create(db))
		assert.NotZero(t, c.ID)
	})

	t.Run("labels are not unique", func(t *testing.T) {
		require.NoError(t, (&Cabinet{Label: "Invoices"}).Create(db))
	})

	t.Run("empty label", func(t *testing.T) {
		err := (&Cabinet{}).Create(db)
		assert.Error(t, err)
	})

	t.Run("label too long", func(t *testing.T) {
		long := make([]byte, 129)
		for i := range long {
			long[i] = 'a'
		}
		err := (&Cabinet{Label: string(long)}).Create(db)
		assert.Error(t, err)
	})
}

func TestCabinet_SetLabel(t *testing.T) {
	db := setupTestDB(t)

	c := &Cabinet{Label: "before"}
	require.NoError(t, c.Create(db))

	require.NoError(t, c.SetLabel(db, "after"))

	var got Cabinet
	require.NoError(t, got.Get(db, c.ID))
	assert.Equal(t, "after", got.Label)

	assert.Error(t, c.SetLabel(db, ""))
	require.NoError(t, got.Get(db, c.ID))
	assert.Equal(t, "after", got.Label)
}

func TestCabinet_AddDocuments(t *testing.T) {
	db := setupTestDB(t)

	d1 := createTestDocument(t, db, "one", 1)
	d2 := createTestDocument(t, db, "two", 1)
	d3 := createTestDocument(t, db, "three", 1)

	t.Run("keeps the given order", func(t *testing.T) {
		c := &Cabinet{Label: "ordered"}
		require.NoError(t, c.Create(db))

		require.NoError(t, c.AddDocuments(db, []uint{d3.ID, d1.ID, d2.ID}))
		assert.Equal(t, []uint{d3.ID, d1.ID, d2.ID}, cabinetDocumentIDs(t, db, c))
	})

	t.Run("appends after existing documents", func(t *testing.T) {
		c := &Cabinet{Label: "appended"}
		require.NoError(t, c.Create(db))

		require.NoError(t, c.AddDocuments(db, []uint{d2.ID}))
		require.NoError(t, c.AddDocuments(db, []uint{d1.ID, d3.ID}))
		assert.Equal(t, []uint{d2.ID, d1.ID, d3.ID}, cabinetDocumentIDs(t, db, c))
	})

	t.Run("duplicates keep their first position", func(t *testing.T) {
		c := &Cabinet{Label: "duplicates"}
		require.NoError(t, c.Create(db))

		require.NoError(t, c.AddDocuments(db, []uint{d1.ID, d2.ID, d1.ID}))
		assert.Equal(t, []uint{d1.ID, d2.ID}, cabinetDocumentIDs(t, db, c))

		// Re-attaching is a no-op.
		require.NoError(t, c.AddDocuments(db, []uint{d1.ID}))
		assert.Equal(t, []uint{d1.ID, d2.ID}, cabinetDocumentIDs(t, db, c))
	})

	t.Run("empty list", func(t *testing.T) {
		c := &Cabinet{Label: "empty"}
		require.NoError(t, c.Create(db))
		require.NoError(t, c.AddDocuments(db, nil))
		assert.Empty(t, cabinetDocumentIDs(t, db, c))
	})
}

func TestCabinet_RemoveDocument(t *testing.T) {
	db := setupTestDB(t)

	d1 := createTestDocument(t, db, "one", 1)
	d2 := createTestDocument(t, db, "two", 1)

	c := &Cabinet{Label: "cabinet"}
	require.NoError(t, c.Create(db))
	require.NoError(t, c.AddDocuments(db, []uint{d1.ID, d2.ID}))

	removed, err := c.RemoveDocument(db, d1.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []uint{d2.ID}, cabinetDocumentIDs(t, db, c))

	// The document itself still exists.
	var doc Document
	require.NoError(t, doc.Get(db, d1.ID))

	removed, err = c.RemoveDocument(db, d1.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	has, err := c.HasDocument(db, d2.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestCabinet_Delete(t *testing.T) {
	db := setupTestDB(t)

	d1 := createTestDocument(t, db, "one", 1)

	c := &Cabinet{Label: "doomed"}
	require.NoError(t, c.Create(db))
	require.NoError(t, c.AddDocuments(db, []uint{d1.ID}))

	require.NoError(t, c.Delete(db))

	var got Cabinet
	assert.ErrorIs(t, got.Get(db, c.ID), gorm.ErrRecordNotFound)

	var joins int64
	require.NoError(t, db.Model(&CabinetDocument{}).Count(&joins).Error)
	assert.Zero(t, joins)

	var doc Document
	require.NoError(t, doc.Get(db, d1.ID))

	assert.ErrorIs(t, c.Delete(db), gorm.ErrRecordNotFound)
}

func TestCabinetsForDocument(t *testing.T) {
	db := setupTestDB(t)

	d := createTestDocument(t, db, "shared", 1)
	for _, label := range []string{"b", "a"} {
		c := &Cabinet{Label: label}
		require.NoError(t, c.Create(db))
		require.NoError(t, c.AddDocuments(db, []uint{d.ID}))
	}
	require.NoError(t, (&Cabinet{Label: "unrelated"}).Create(db))

	cabinets, err := CabinetsForDocument(db, d.ID)
	require.NoError(t, err)
	require.Len(t, cabinets, 2)
	assert.Equal(t, "a", cabinets[0].Label)
	assert.Equal(t, "b", cabinets[1].Label)
}
