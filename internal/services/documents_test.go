package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/archivist/internal/services"
	"github.com/hashicorp-forge/archivist/pkg/models"
	"github.com/hashicorp-forge/archivist/pkg/permissions"
)

func TestDocumentServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("without create permission", func(t *testing.T) {
		env := newTestEnv(t)
		u := env.user(t, "alice")

		_, err := env.documents.Create(ctx, u, services.Upload{
			Label: "Report",
			File:  fakePDF("hello"),
		})
		assert.ErrorIs(t, err, permissions.ErrForbidden)

		var n int64
		require.NoError(t, env.db.Model(&models.Document{}).Count(&n).Error)
		assert.Zero(t, n)
	})

	t.Run("parses and indexes pages", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.admin(t)

		doc, err := env.documents.Create(ctx, admin, services.Upload{
			Filename: "report.pdf",
			File:     fakePDF("quarterly revenue", "appendix tables"),
		})
		require.NoError(t, err)
		assert.Equal(t, "report.pdf", doc.Label)

		pages, err := doc.Pages(env.db)
		require.NoError(t, err)
		require.Len(t, pages, 2)
		assert.Equal(t, "quarterly revenue", pages[0].Text())
		assert.Equal(t, "appendix tables", pages[1].Text())

		v, err := doc.LatestVersion(env.db)
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", v.MimeType)
		assert.Len(t, v.Checksum, 64)

		found, err := env.search.SearchDocuments(ctx, admin, "revenue")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, doc.ID, found[0].ID)

		pageHits, err := env.search.SearchDocumentPages(ctx, admin, "appendix")
		require.NoError(t, err)
		require.Len(t, pageHits, 1)
		assert.Equal(t, 2, pageHits[0].Page.PageNumber)
	})

	t.Run("rejects unreadable files", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.admin(t)

		_, err := env.documents.Create(ctx, admin, services.Upload{
			Label: "Not a PDF",
			File:  fakeText("just text"),
		})
		assert.ErrorIs(t, err, services.ErrInvalid)

		_, err = env.documents.Create(ctx, admin, services.Upload{Label: "No file"})
		assert.ErrorIs(t, err, services.ErrInvalid)

		_, err = env.documents.Create(ctx, admin, services.Upload{File: fakePDF("x")})
		assert.ErrorIs(t, err, services.ErrInvalid, "label or filename is required")

		var n int64
		require.NoError(t, env.db.Model(&models.Document{}).Count(&n).Error)
		assert.Zero(t, n)
	})
}

func TestDocumentServiceNewVersion(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.admin(t)
	u := env.user(t, "alice")

	doc, err := env.documents.Create(ctx, admin, services.Upload{
		Label: "Contract",
		File:  fakePDF("draft terms"),
	})
	require.NoError(t, err)

	_, err = env.documents.NewVersion(ctx, u, doc.ID, services.Upload{File: fakePDF("final terms")})
	assert.ErrorIs(t, err, permissions.ErrNotFound)

	env.grant(t, u, permissions.DocumentNewVersion, documentObj(doc))

	require.NoError(t, models.BlockNewVersions(env.db, doc.ID))
	_, err = env.documents.NewVersion(ctx, u, doc.ID, services.Upload{File: fakePDF("final terms")})
	assert.ErrorIs(t, err, models.ErrNewVersionBlocked)

	require.NoError(t, models.UnblockNewVersions(env.db, doc.ID))
	v, err := env.documents.NewVersion(ctx, u, doc.ID, services.Upload{
		Comment: "signed",
		File:    fakePDF("final terms", "signatures"),
	})
	require.NoError(t, err)
	assert.Equal(t, "signed", v.Comment)
	assert.Len(t, v.Pages, 2)

	pages, err := env.documents.Pages(ctx, admin, doc.ID)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "final terms", pages[0].Text())

	hits, err := env.search.SearchDocumentPages(ctx, admin, "draft")
	require.NoError(t, err)
	assert.Empty(t, hits, "pages of the previous version are removed from the index")
}

func TestDocumentServiceListGetDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.admin(t)
	u := env.user(t, "alice")

	visible, err := env.documents.Create(ctx, admin, services.Upload{Label: "Visible", File: fakePDF("alpha")})
	require.NoError(t, err)
	hidden, err := env.documents.Create(ctx, admin, services.Upload{Label: "Hidden", File: fakePDF("alpha")})
	require.NoError(t, err)
	env.grant(t, u, permissions.DocumentView, documentObj(visible))

	docs, count, err := env.documents.List(ctx, u, services.ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, []uint{visible.ID}, documentIDs(docs))

	_, err = env.documents.Get(ctx, u, hidden.ID)
	assert.ErrorIs(t, err, permissions.ErrNotFound)
	_, err = env.documents.Pages(ctx, u, hidden.ID)
	assert.ErrorIs(t, err, permissions.ErrNotFound)

	got, err := env.documents.Get(ctx, u, visible.ID)
	require.NoError(t, err)
	assert.Equal(t, visible.UUID, got.UUID)

	err = env.documents.Delete(ctx, u, visible.ID)
	assert.ErrorIs(t, err, permissions.ErrNotFound)

	c := env.cabinet(t, "Box", visible, hidden)
	require.NoError(t, env.documents.Delete(ctx, admin, visible.ID))

	_, err = env.documents.Get(ctx, admin, visible.ID)
	assert.ErrorIs(t, err, permissions.ErrNotFound)

	cabinetDocs, err := c.Documents(env.db)
	require.NoError(t, err)
	assert.Equal(t, []uint{hidden.ID}, documentIDs(cabinetDocs))

	found, err := env.search.SearchDocuments(ctx, admin, "alpha")
	require.NoError(t, err)
	assert.Equal(t, []uint{hidden.ID}, documentIDs(found))
}
