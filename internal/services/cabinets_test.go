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

func TestCabinetServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("without create permission", func(t *testing.T) {
		env := newTestEnv(t)
		u := env.user(t, "alice")

		_, err := env.cabinets.Create(ctx, u, "Invoices", nil)
		assert.ErrorIs(t, err, permissions.ErrForbidden)
		assert.EqualValues(t, 0, env.cabinetCount(t))
	})

	t.Run("object grant does not allow create", func(t *testing.T) {
		env := newTestEnv(t)
		u := env.user(t, "alice")
		other := env.cabinet(t, "Other")
		env.grant(t, u, permissions.CabinetCreate, cabinetObj(other))

		_, err := env.cabinets.Create(ctx, u, "Invoices", nil)
		assert.ErrorIs(t, err, permissions.ErrForbidden)
		assert.EqualValues(t, 1, env.cabinetCount(t))
	})

	t.Run("with documents in order", func(t *testing.T) {
		env := newTestEnv(t)
		u := env.user(t, "alice")
		env.grant(t, u, permissions.CabinetCreate, nil)
		env.grant(t, u, permissions.DocumentView, nil)
		d1 := env.document(t, "one")
		d2 := env.document(t, "two")

		c, err := env.cabinets.Create(ctx, u, "Invoices", []uint{d2.ID, d1.ID, d2.ID})
		require.NoError(t, err)
		assert.Equal(t, "Invoices", c.Label)
		assert.NotZero(t, c.ID)

		docs, err := c.Documents(env.db)
		require.NoError(t, err)
		assert.Equal(t, []uint{d2.ID, d1.ID}, documentIDs(docs))
	})

	t.Run("invalid label", func(t *testing.T) {
		env := newTestEnv(t)
		u := env.user(t, "alice")
		env.grant(t, u, permissions.CabinetCreate, nil)

		_, err := env.cabinets.Create(ctx, u, "", nil)
		assert.ErrorIs(t, err, services.ErrInvalid)
		assert.EqualValues(t, 0, env.cabinetCount(t))
	})

	t.Run("unknown or invisible documents", func(t *testing.T) {
		env := newTestEnv(t)
		u := env.user(t, "alice")
		env.grant(t, u, permissions.CabinetCreate, nil)
		visible := env.document(t, "visible")
		hidden := env.document(t, "hidden")
		env.grant(t, u, permissions.DocumentView, documentObj(visible))

		_, err := env.cabinets.Create(ctx, u, "Invoices", []uint{visible.ID, 999})
		assert.ErrorIs(t, err, services.ErrInvalid)
		assert.ErrorContains(t, err, "999")

		_, err = env.cabinets.Create(ctx, u, "Invoices", []uint{visible.ID, hidden.ID})
		assert.ErrorIs(t, err, services.ErrInvalid)

		assert.EqualValues(t, 0, env.cabinetCount(t))
	})

	t.Run("role grant", func(t *testing.T) {
		env := newTestEnv(t)
		u := env.user(t, "alice")
		role := &models.Role{Label: "editors"}
		require.NoError(t, role.Create(env.db))
		require.NoError(t, role.AddUser(env.db, u))
		_, err := permissions.Grant(env.db, permissions.RoleSubject(role), permissions.CabinetCreate, nil)
		require.NoError(t, err)

		_, err = env.cabinets.Create(ctx, u, "Invoices", nil)
		require.NoError(t, err)
		assert.EqualValues(t, 1, env.cabinetCount(t))
	})
}

func TestCabinetServiceList(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t, "alice")

	b := env.cabinet(t, "B")
	env.cabinet(t, "Hidden")
	a := env.cabinet(t, "A")
	env.grant(t, u, permissions.CabinetView, cabinetObj(a))
	env.grant(t, u, permissions.CabinetView, cabinetObj(b))

	cabinets, count, err := env.cabinets.List(ctx, u, services.ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	require.Len(t, cabinets, 2)
	assert.Equal(t, "A", cabinets[0].Label)
	assert.Equal(t, "B", cabinets[1].Label)

	cabinets, count, err = env.cabinets.List(ctx, u, services.ListOptions{Offset: 1, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	require.Len(t, cabinets, 1)
	assert.Equal(t, "B", cabinets[0].Label)

	cabinets, count, err = env.cabinets.List(ctx, env.user(t, "bob"), services.ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
	assert.Empty(t, cabinets)

	_, count, err = env.cabinets.List(ctx, env.admin(t), services.ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestCabinetServiceGet(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t, "alice")
	c := env.cabinet(t, "Invoices")

	_, err := env.cabinets.Get(ctx, u, c.ID)
	assert.ErrorIs(t, err, permissions.ErrNotFound)

	env.grant(t, u, permissions.CabinetView, cabinetObj(c))
	got, err := env.cabinets.Get(ctx, u, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Invoices", got.Label)

	_, err = env.cabinets.Get(ctx, env.admin(t), c.ID+100)
	assert.ErrorIs(t, err, permissions.ErrNotFound)
}

func TestCabinetServiceUpdate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t, "alice")
	d := env.document(t, "doc")
	c := env.cabinet(t, "Invoices", d)
	env.grant(t, u, permissions.CabinetView, cabinetObj(c))

	_, err := env.cabinets.Update(ctx, u, c.ID, strPtr("Receipts"))
	assert.ErrorIs(t, err, permissions.ErrNotFound)

	var stored models.Cabinet
	require.NoError(t, stored.Get(env.db, c.ID))
	assert.Equal(t, "Invoices", stored.Label)

	env.grant(t, u, permissions.CabinetEdit, cabinetObj(c))

	_, err = env.cabinets.Update(ctx, u, c.ID, strPtr(""))
	assert.ErrorIs(t, err, services.ErrInvalid)

	unchanged, err := env.cabinets.Update(ctx, u, c.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "Invoices", unchanged.Label)

	updated, err := env.cabinets.Update(ctx, u, c.ID, strPtr("Receipts"))
	require.NoError(t, err)
	assert.Equal(t, "Receipts", updated.Label)

	require.NoError(t, stored.Get(env.db, c.ID))
	assert.Equal(t, "Receipts", stored.Label)

	docs, err := stored.Documents(env.db)
	require.NoError(t, err)
	assert.Equal(t, []uint{d.ID}, documentIDs(docs))
}

func TestCabinetServiceDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t, "alice")
	d := env.document(t, "doc")
	c := env.cabinet(t, "Invoices", d)
	env.grant(t, u, permissions.CabinetView, cabinetObj(c))

	err := env.cabinets.Delete(ctx, u, c.ID)
	assert.ErrorIs(t, err, permissions.ErrNotFound)
	assert.EqualValues(t, 1, env.cabinetCount(t))

	env.grant(t, u, permissions.CabinetDelete, cabinetObj(c))
	require.NoError(t, env.cabinets.Delete(ctx, u, c.ID))
	assert.EqualValues(t, 0, env.cabinetCount(t))

	var doc models.Document
	require.NoError(t, doc.Get(env.db, d.ID), "documents survive cabinet deletion")

	var grants int64
	require.NoError(t, env.db.Model(&models.AccessGrant{}).
		Where("object_type = ? AND object_id = ?", permissions.ObjectTypeCabinet, c.ID).
		Count(&grants).Error)
	assert.Zero(t, grants)

	err = env.cabinets.Delete(ctx, u, c.ID)
	assert.ErrorIs(t, err, permissions.ErrNotFound)
}

func TestCabinetServiceDocuments(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t, "alice")
	d1 := env.document(t, "one")
	d2 := env.document(t, "two")
	d3 := env.document(t, "three")
	c := env.cabinet(t, "Invoices", d3, d1, d2)

	_, _, err := env.cabinets.Documents(ctx, u, c.ID, services.ListOptions{})
	assert.ErrorIs(t, err, permissions.ErrNotFound)

	env.grant(t, u, permissions.CabinetView, cabinetObj(c))
	env.grant(t, u, permissions.DocumentView, documentObj(d1))
	env.grant(t, u, permissions.DocumentView, documentObj(d3))

	docs, count, err := env.cabinets.Documents(ctx, u, c.ID, services.ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.Equal(t, []uint{d3.ID, d1.ID}, documentIDs(docs))

	t.Run("detail", func(t *testing.T) {
		doc, err := env.cabinets.Document(ctx, u, c.ID, d1.ID)
		require.NoError(t, err)
		assert.Equal(t, d1.UUID, doc.UUID)

		_, err = env.cabinets.Document(ctx, u, c.ID, d2.ID)
		assert.ErrorIs(t, err, permissions.ErrNotFound, "attached but not visible")

		outside := env.document(t, "outside")
		env.grant(t, u, permissions.DocumentView, documentObj(outside))
		_, err = env.cabinets.Document(ctx, u, c.ID, outside.ID)
		assert.ErrorIs(t, err, permissions.ErrNotFound, "visible but not attached")
	})
}

func TestCabinetServiceAddDocuments(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t, "alice")
	d1 := env.document(t, "one")
	d2 := env.document(t, "two")
	d3 := env.document(t, "three")
	c := env.cabinet(t, "Invoices", d1)
	env.grant(t, u, permissions.DocumentView, nil)

	err := env.cabinets.AddDocuments(ctx, u, c.ID, []uint{d2.ID})
	assert.ErrorIs(t, err, permissions.ErrNotFound)

	env.grant(t, u, permissions.CabinetAddDocument, cabinetObj(c))

	err = env.cabinets.AddDocuments(ctx, u, c.ID, nil)
	assert.ErrorIs(t, err, services.ErrInvalid)

	err = env.cabinets.AddDocuments(ctx, u, c.ID, []uint{d3.ID, 12345})
	assert.ErrorIs(t, err, services.ErrInvalid)

	require.NoError(t, env.cabinets.AddDocuments(ctx, u, c.ID, []uint{d3.ID, d1.ID, d2.ID}))

	docs, err := c.Documents(env.db)
	require.NoError(t, err)
	assert.Equal(t, []uint{d1.ID, d3.ID, d2.ID}, documentIDs(docs))
}

func TestCabinetServiceRemoveDocument(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t, "alice")
	d1 := env.document(t, "one")
	d2 := env.document(t, "two")
	c := env.cabinet(t, "Invoices", d1)

	err := env.cabinets.RemoveDocument(ctx, u, c.ID, d1.ID)
	assert.ErrorIs(t, err, permissions.ErrNotFound)

	env.grant(t, u, permissions.CabinetRemoveDocument, cabinetObj(c))

	err = env.cabinets.RemoveDocument(ctx, u, c.ID, d2.ID)
	assert.ErrorIs(t, err, permissions.ErrNotFound, "not attached")

	require.NoError(t, env.cabinets.RemoveDocument(ctx, u, c.ID, d1.ID))

	docs, err := c.Documents(env.db)
	require.NoError(t, err)
	assert.Empty(t, docs)

	var doc models.Document
	require.NoError(t, doc.Get(env.db, d1.ID), "detached documents are kept")
}

func TestParseIDList(t *testing.T) {
	ids, err := services.ParseIDList("7,9")
	require.NoError(t, err)
	assert.Equal(t, []uint{7, 9}, ids)

	ids, err = services.ParseIDList(" 9, 7 ,9,,")
	require.NoError(t, err)
	assert.Equal(t, []uint{9, 7}, ids)

	ids, err = services.ParseIDList("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, s := range []string{"a", "1,x", "-3", "0"} {
		_, err := services.ParseIDList(s)
		assert.ErrorIs(t, err, services.ErrInvalid, s)
	}
}
