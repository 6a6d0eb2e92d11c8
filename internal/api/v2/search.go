package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hashicorp-forge/archivist/internal/server"
	"github.com/hashicorp-forge/archivist/pkg/auth"
)

// Search models.
const (
	searchModelDocuments     = "documents"
	searchModelDocumentPages = "document_pages"
)

// SearchHandler handles full-text search over documents and document pages.
// Only documents the user can view, and their pages, are returned.
//
// GET /api/v2/search/documents?q=<text>
// GET /api/v2/search/document_pages?q=<text>
func SearchHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"path", r.URL.Path,
			"method", r.Method,
		}
		user := auth.MustGetUser(r.Context())

		if r.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		model := chi.URLParam(r, "model")
		if model == "document-pages" {
			model = searchModelDocumentPages
		}
		text := r.URL.Query().Get("q")
		logArgs = append(logArgs, "model", model)

		p, err := parsePagination(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		opts := p.options()

		switch model {
		case searchModelDocuments:
			docs, err := srv.Search.SearchDocuments(r.Context(), user, text)
			if err != nil {
				respondError(srv, w, "Error searching documents", err, logArgs)
				return
			}
			results := newDocumentResponses(window(docs, opts.Offset, opts.Limit))
			writeJSON(srv, w, http.StatusOK,
				newListResponse(r, p, int64(len(docs)), results), logArgs)

		case searchModelDocumentPages:
			pages, err := srv.Search.SearchDocumentPages(r.Context(), user, text)
			if err != nil {
				respondError(srv, w, "Error searching document pages", err, logArgs)
				return
			}
			results := make([]DocumentPageResponse, 0, len(pages))
			for _, pr := range window(pages, opts.Offset, opts.Limit) {
				results = append(results, newDocumentPageResponse(pr.DocumentID, &pr.Page))
			}
			writeJSON(srv, w, http.StatusOK,
				newListResponse(r, p, int64(len(pages)), results), logArgs)

		default:
			http.Error(w, "Not found.", http.StatusNotFound)
		}
	})
}

// window returns the elements of s in [offset, offset+limit).
func window[T any](s []T, offset, limit int) []T {
	if offset >= len(s) {
		return nil
	}
	s = s[offset:]
	if limit > 0 && limit < len(s) {
		s = s[:limit]
	}
	return s
}
