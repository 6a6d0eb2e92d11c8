package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDocument_Create(t *testing.T) {
	db := setupTestDB(t)

	t.Run("generates UUID and default language", func(t *testing.T) {
		doc := &Document{Label: "report.pdf"}
		require.NoError(t, doc.Create(db))
		assert.NotEqual(t, uuid.Nil, doc.UUID)
		assert.Equal(t, "eng", doc.Language)

		var got Document
		require.NoError(t, got.Get(db, doc.ID))
		assert.Equal(t, doc.UUID, got.UUID)
	})

	t.Run("keeps provided UUID", func(t *testing.T) {
		id := uuid.New()
		doc := &Document{Label: "fixed", UUID: id}
		require.NoError(t, doc.Create(db))
		assert.Equal(t, id, doc.UUID)
	})

	t.Run("label required", func(t *testing.T) {
		assert.Error(t, (&Document{}).Create(db))
	})
}

func TestDocument_Pages(t *testing.T) {
	db := setupTestDB(t)

	t.Run("no versions", func(t *testing.T) {
		doc := &Document{Label: "empty"}
		require.NoError(t, doc.Create(db))

		pages, err := doc.Pages(db)
		require.NoError(t, err)
		assert.Empty(t, pages)
	})

	t.Run("pages of the latest version", func(t *testing.T) {
		doc := createTestDocument(t, db, "versions", 2)

		v2 := &DocumentVersion{
			DocumentID: doc.ID,
			FileKey:    "second",
			CreatedAt:  time.Now().Add(time.Minute),
		}
		require.NoError(t, NewDocumentVersion(db, v2, 3))

		latest, err := doc.LatestVersion(db)
		require.NoError(t, err)
		assert.Equal(t, v2.ID, latest.ID)

		pages, err := doc.Pages(db)
		require.NoError(t, err)
		require.Len(t, pages, 3)
		for i, p := range pages {
			assert.Equal(t, i+1, p.PageNumber)
			assert.Equal(t, v2.ID, p.DocumentVersionID)
		}
	})
}

func TestDocumentPage_SetContent(t *testing.T) {
	db := setupTestDB(t)
	doc := createTestDocument(t, db, "content", 1)

	pages, err := doc.Pages(db)
	require.NoError(t, err)
	page := pages[0]

	require.NoError(t, page.SetContent(db, "first"))
	require.NoError(t, page.SetContent(db, "second"))

	var count int64
	require.NoError(t, db.Model(&DocumentPageContent{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	pages, err = doc.Pages(db)
	require.NoError(t, err)
	assert.Equal(t, "second", pages[0].Text())

	docID, err := page.DocumentID(db)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, docID)
}

func TestDocument_Delete(t *testing.T) {
	db := setupTestDB(t)
	doc := createTestDocument(t, db, "delete me", 2)

	c := &Cabinet{Label: "holder"}
	require.NoError(t, c.Create(db))
	require.NoError(t, c.AddDocuments(db, []uint{doc.ID}))
	require.NoError(t, BlockNewVersions(db, doc.ID))

	require.NoError(t, doc.Delete(db))

	var got Document
	assert.ErrorIs(t, got.Get(db, doc.ID), gorm.ErrRecordNotFound)

	for _, m := range []any{
		&DocumentVersion{}, &DocumentPage{}, &CabinetDocument{}, &NewVersionBlock{},
	} {
		var count int64
		require.NoError(t, db.Model(m).Count(&count).Error)
		assert.Zero(t, count, "%T rows left", m)
	}

	// The cabinet survives.
	require.NoError(t, c.Get(db, c.ID))
}

func TestDocuments_FindByIDs(t *testing.T) {
	db := setupTestDB(t)
	d1 := createTestDocument(t, db, "one", 1)
	d2 := createTestDocument(t, db, "two", 1)

	var docs Documents
	require.NoError(t, docs.FindByIDs(db, []uint{d2.ID, 999, d1.ID}))
	require.Len(t, docs, 2)
	assert.Equal(t, d2.ID, docs[0].ID)
	assert.Equal(t, d1.ID, docs[1].ID)

	require.NoError(t, docs.FindByIDs(db, nil))
	assert.Empty(t, docs)
}
