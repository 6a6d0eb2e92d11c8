// Package api implements the version 2 REST API.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hashicorp-forge/archivist/internal/server"
)

// NewRouter returns the HTTP handler for the API.
//
//	GET    /health
//	GET    /api/v2/cabinets                               list cabinets
//	POST   /api/v2/cabinets                               create a cabinet
//	GET    /api/v2/cabinets/{id}                          cabinet detail
//	PATCH  /api/v2/cabinets/{id}                          partial update
//	PUT    /api/v2/cabinets/{id}                          full update
//	DELETE /api/v2/cabinets/{id}                          delete a cabinet
//	GET    /api/v2/cabinets/{id}/documents                cabinet documents
//	POST   /api/v2/cabinets/{id}/documents                attach documents
//	GET    /api/v2/cabinets/{id}/documents/{document_id}  attached document
//	DELETE /api/v2/cabinets/{id}/documents/{document_id}  detach a document
//	GET    /api/v2/documents                              list documents
//	POST   /api/v2/documents                              upload a document
//	GET    /api/v2/documents/{id}                         document detail
//	DELETE /api/v2/documents/{id}                         delete a document
//	POST   /api/v2/documents/{id}/versions                upload a new version
//	GET    /api/v2/documents/{id}/pages                   latest version pages
//	GET    /api/v2/search/{model}?q=                      search documents or pages
//	GET    /api/v2/access-grants                          list grants (admin)
//	POST   /api/v2/access-grants                          create a grant (admin)
//	DELETE /api/v2/access-grants/{id}                     delete a grant (admin)
func NewRouter(srv server.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Handle("/health", HealthHandler(srv))

	r.Route("/api/v2", func(r chi.Router) {
		r.Use(AuthMiddleware(srv))

		r.Handle("/cabinets", CabinetsHandler(srv))
		r.Handle("/cabinets/{id}", CabinetHandler(srv))
		r.Handle("/cabinets/{id}/documents", CabinetDocumentsHandler(srv))
		r.Handle("/cabinets/{id}/documents/{document_id}", CabinetDocumentHandler(srv))

		r.Handle("/documents", DocumentsHandler(srv))
		r.Handle("/documents/{id}", DocumentHandler(srv))
		r.Handle("/documents/{id}/versions", DocumentVersionsHandler(srv))
		r.Handle("/documents/{id}/pages", DocumentPagesHandler(srv))
		r.Handle("/documents/{id}/cabinets", DocumentCabinetsHandler(srv))

		r.Handle("/search/{model}", SearchHandler(srv))

		r.Handle("/access-grants", AccessGrantsHandler(srv))
		r.Handle("/access-grants/{id}", AccessGrantHandler(srv))
	})

	return r
}
