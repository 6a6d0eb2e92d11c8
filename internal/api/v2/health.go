package api

import (
	"net/http"

	"github.com/hashicorp-forge/archivist/internal/server"
	"github.com/hashicorp-forge/archivist/pkg/database"
)

// HealthResponse reports the state of the server's dependencies.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Search   string `json:"search"`

	// SearchProvider names the configured search backend.
	SearchProvider string `json:"search_provider,omitempty"`

	// Pool is omitted when the database is unavailable.
	Pool *database.PoolStats `json:"pool,omitempty"`
}

// HealthHandler reports whether the database and search backend are
// reachable. It does not require authentication.
func HealthHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"path", r.URL.Path,
			"method", r.Method,
		}
		if r.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		resp := HealthResponse{Status: "ok", Database: "ok", Search: "ok"}

		sqlDB, err := srv.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err == nil {
			resp.Pool, err = database.GetPoolStats(srv.DB)
		}
		if err != nil {
			srv.Logger.Error("database health check failed",
				append(logArgs, "error", err)...)
			resp.Status, resp.Database = "unavailable", "unavailable"
		}

		if srv.SearchProvider != nil {
			resp.SearchProvider = srv.SearchProvider.Name()
			if err := srv.SearchProvider.Healthy(r.Context()); err != nil {
				srv.Logger.Error("search health check failed",
					append(logArgs, "error", err)...)
				resp.Status, resp.Search = "unavailable", "unavailable"
			}
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(srv, w, status, resp, logArgs)
	})
}
