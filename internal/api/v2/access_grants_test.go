package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/archivist/pkg/permissions"
)

func TestAccessGrants(t *testing.T) {
	a := newTestAPI(t)
	_, adminToken := a.admin()
	u, token := a.user("alice")
	c := a.cabinet("Invoices")
	cabinetPath := fmt.Sprintf("/api/v2/cabinets/%d", c.ID)

	t.Run("admin only", func(t *testing.T) {
		w := a.do(token, "GET", "/api/v2/access-grants", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = a.do(token, "POST", "/api/v2/access-grants", map[string]any{
			"permission": string(permissions.CabinetView),
			"user_id":    u.ID,
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("bad requests", func(t *testing.T) {
		for name, body := range map[string]map[string]any{
			"unknown permission":  {"permission": "cabinets.nope", "user_id": u.ID},
			"unknown object type": {"permission": string(permissions.CabinetView), "user_id": u.ID, "object_type": "tag", "object_id": c.ID},
			"missing object id":   {"permission": string(permissions.CabinetView), "user_id": u.ID, "object_type": "cabinet"},
			"missing object type": {"permission": string(permissions.CabinetView), "user_id": u.ID, "object_id": c.ID},
			"no subject":          {"permission": string(permissions.CabinetView)},
		} {
			w := a.do(adminToken, "POST", "/api/v2/access-grants", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, name)
		}
	})

	var grant AccessGrantResponse
	t.Run("grant", func(t *testing.T) {
		w := a.do(token, "GET", cabinetPath, nil)
		require.Equal(t, http.StatusNotFound, w.Code)

		w = a.do(adminToken, "POST", "/api/v2/access-grants", map[string]any{
			"permission":  string(permissions.CabinetView),
			"user_id":     u.ID,
			"object_type": permissions.ObjectTypeCabinet,
			"object_id":   c.ID,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		grant = decodeBody[AccessGrantResponse](t, w)
		assert.Equal(t, string(permissions.CabinetView), grant.Permission)
		require.NotNil(t, grant.UserID)
		assert.Equal(t, u.ID, *grant.UserID)

		w = a.do(token, "GET", cabinetPath, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = a.do(adminToken, "GET", "/api/v2/access-grants", nil)
		require.Equal(t, http.StatusOK, w.Code)
		list := decodeBody[ListResponse[AccessGrantResponse]](t, w)
		assert.EqualValues(t, 1, list.Count)
	})

	t.Run("revoke", func(t *testing.T) {
		require.NotZero(t, grant.ID)
		path := fmt.Sprintf("/api/v2/access-grants/%d", grant.ID)

		w := a.do(token, "DELETE", path, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = a.do(adminToken, "DELETE", path, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = a.do(adminToken, "DELETE", path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = a.do(token, "GET", cabinetPath, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
