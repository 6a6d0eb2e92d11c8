package api

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/hashicorp-forge/archivist/internal/server"
	"github.com/hashicorp-forge/archivist/pkg/auth"
	"github.com/hashicorp-forge/archivist/pkg/models"
	"github.com/hashicorp-forge/archivist/pkg/permissions"
)

// AccessGrantRequest contains the fields that are allowed to make the POST
// request for access grants. Exactly one of UserID and RoleID must be set.
// A grant without ObjectType and ObjectID is global.
type AccessGrantRequest struct {
	Permission string `json:"permission"`
	UserID     *uint  `json:"user_id"`
	RoleID     *uint  `json:"role_id"`
	ObjectType string `json:"object_type"`
	ObjectID   *uint  `json:"object_id"`
}

// AccessGrantsHandler handles listing and creating access grants. It is
// restricted to admin users.
func AccessGrantsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"path", r.URL.Path,
			"method", r.Method,
		}
		user := auth.MustGetUser(r.Context())
		if !user.IsAdmin {
			http.Error(w, "You do not have permission to perform this action.",
				http.StatusForbidden)
			return
		}

		switch r.Method {
		case "GET":
			p, err := parsePagination(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			db := srv.DB.WithContext(r.Context())
			var count int64
			if err := db.Model(&models.AccessGrant{}).Count(&count).Error; err != nil {
				respondError(srv, w, "Error listing access grants", err, logArgs)
				return
			}
			var grants []models.AccessGrant
			opts := p.options()
			if err := db.Order("id ASC").
				Offset(opts.Offset).
				Limit(opts.Limit).
				Find(&grants).Error; err != nil {
				respondError(srv, w, "Error listing access grants", err, logArgs)
				return
			}

			results := make([]AccessGrantResponse, 0, len(grants))
			for i := range grants {
				results = append(results, newAccessGrantResponse(&grants[i]))
			}
			writeJSON(srv, w, http.StatusOK,
				newListResponse(r, p, count, results), logArgs)

		case "POST":
			var req AccessGrantRequest
			if err := decodeRequest(r, &req); err != nil {
				http.Error(w, "Bad request: "+err.Error(), http.StatusBadRequest)
				return
			}

			perm := permissions.Permission(req.Permission)
			if !perm.Valid() {
				http.Error(w, "Bad request: unknown permission", http.StatusBadRequest)
				return
			}
			var obj *permissions.Object
			switch req.ObjectType {
			case "":
				if req.ObjectID != nil {
					http.Error(w, "Bad request: object_id requires object_type",
						http.StatusBadRequest)
					return
				}
			case permissions.ObjectTypeCabinet, permissions.ObjectTypeDocument:
				if req.ObjectID == nil {
					http.Error(w, "Bad request: object_type requires object_id",
						http.StatusBadRequest)
					return
				}
				obj = &permissions.Object{Type: req.ObjectType, ID: *req.ObjectID}
			default:
				http.Error(w, "Bad request: unknown object_type", http.StatusBadRequest)
				return
			}

			g, err := permissions.Grant(srv.DB.WithContext(r.Context()),
				permissions.Subject{UserID: req.UserID, RoleID: req.RoleID}, perm, obj)
			if err != nil {
				srv.Logger.Warn("error creating access grant",
					append(logArgs, "error", err)...)
				http.Error(w, "Bad request: "+err.Error(), http.StatusBadRequest)
				return
			}

			srv.Logger.Info("created access grant",
				append(logArgs,
					"grant_id", g.ID,
					"permission", g.Permission,
					"admin", user.Username,
				)...)
			writeJSON(srv, w, http.StatusCreated, newAccessGrantResponse(g), logArgs)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
	})
}

// AccessGrantHandler handles deleting an access grant. It is restricted to
// admin users.
func AccessGrantHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"path", r.URL.Path,
			"method", r.Method,
		}
		user := auth.MustGetUser(r.Context())
		if !user.IsAdmin {
			http.Error(w, "You do not have permission to perform this action.",
				http.StatusForbidden)
			return
		}

		id, err := parseIDParam(r, "id")
		if err != nil {
			http.Error(w, "Not found.", http.StatusNotFound)
			return
		}

		switch r.Method {
		case "DELETE":
			db := srv.DB.WithContext(r.Context())

			var g models.AccessGrant
			if err := g.Get(db, id); errors.Is(err, gorm.ErrRecordNotFound) {
				http.Error(w, "Not found.", http.StatusNotFound)
				return
			} else if err != nil {
				respondError(srv, w, "Error getting access grant", err, logArgs)
				return
			}
			if err := g.Delete(db); err != nil {
				respondError(srv, w, "Error deleting access grant", err, logArgs)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
	})
}
