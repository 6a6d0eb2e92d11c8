package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_Roles(t *testing.T) {
	db := setupTestDB(t)

	u := &User{Username: "bob"}
	require.NoError(t, u.Create(db))

	ids, err := u.RoleIDs(db)
	require.NoError(t, err)
	assert.Empty(t, ids)

	r := &Role{Label: "editors"}
	require.NoError(t, r.Create(db))
	require.NoError(t, r.AddUser(db, u))

	ids, err = u.RoleIDs(db)
	require.NoError(t, err)
	assert.Equal(t, []uint{r.ID}, ids)

	var got Role
	require.NoError(t, got.GetByLabel(db, "editors"))
	assert.Equal(t, r.ID, got.ID)

	var byName User
	require.NoError(t, byName.GetByUsername(db, "bob"))
	assert.Equal(t, u.ID, byName.ID)

	assert.Error(t, (&User{Username: "bob"}).Create(db), "usernames are unique")
	assert.Error(t, (&User{}).Create(db))
}
