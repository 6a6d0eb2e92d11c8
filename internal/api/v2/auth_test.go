package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/archivist/pkg/models"
)

func TestAuthMiddleware(t *testing.T) {
	a := newTestAPI(t)
	u, token := a.user("alice")

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic " + token,
		"unknown token":  "Bearer not-a-token",
		"empty bearer":   "Bearer ",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v2/cabinets", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			a.handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		})
	}

	t.Run("expired token", func(t *testing.T) {
		expired, tok, err := models.IssueToken(a.db, u.ID, time.Hour)
		require.NoError(t, err)
		require.NoError(t, a.db.Model(tok).
			Update("expires_at", time.Now().Add(-time.Minute)).Error)

		w := a.do(expired, "GET", "/api/v2/cabinets", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		revoked, tok, err := models.IssueToken(a.db, u.ID, 0)
		require.NoError(t, err)
		require.NoError(t, tok.Revoke(a.db))

		w := a.do(revoked, "GET", "/api/v2/cabinets", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		w := a.do(token, "GET", "/api/v2/cabinets", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
