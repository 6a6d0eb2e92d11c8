package api

import (
	"errors"
	"net/http"

	"github.com/hashicorp-forge/archivist/internal/server"
	"github.com/hashicorp-forge/archivist/pkg/auth"
)

// AuthMiddleware authenticates requests with an API token sent as
// "Authorization: Bearer <token>" and stores the token's user in the request
// context.
func AuthMiddleware(srv server.Server) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logArgs := []any{
				"path", r.URL.Path,
				"method", r.Method,
			}

			token, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				srv.Logger.Warn("missing or malformed authorization header",
					append(logArgs, "error", err)...)
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Authentication credentials were not provided.",
					http.StatusUnauthorized)
				return
			}

			user, _, err := auth.Authenticate(srv.DB.WithContext(r.Context()), token)
			if errors.Is(err, auth.ErrInvalidToken) {
				srv.Logger.Warn("invalid API token", logArgs...)
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Invalid or expired token.", http.StatusUnauthorized)
				return
			} else if err != nil {
				srv.Logger.Error("error authenticating request",
					append(logArgs, "error", err)...)
				http.Error(w, "Error authenticating request",
					http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}
