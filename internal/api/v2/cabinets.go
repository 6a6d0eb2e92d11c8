package api

import (
	"net/http"

	"github.com/hashicorp-forge/archivist/internal/server"
	"github.com/hashicorp-forge/archivist/internal/services"
	"github.com/hashicorp-forge/archivist/pkg/auth"
)

// CabinetRequest contains the fields that are allowed to make the POST,
// PATCH and PUT requests for cabinets.
type CabinetRequest struct {
	Label *string `json:"label"`

	// DocumentsPKList is a comma separated list of document IDs ("7,9").
	DocumentsPKList string `json:"documents_pk_list"`
}

// CabinetDocumentsRequest contains the fields that are allowed to make the
// POST request for cabinet documents.
type CabinetDocumentsRequest struct {
	DocumentsPKList string `json:"documents_pk_list"`
}

// CabinetsHandler handles listing and creating cabinets.
func CabinetsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"path", r.URL.Path,
			"method", r.Method,
		}
		user := auth.MustGetUser(r.Context())

		switch r.Method {
		case "GET":
			p, err := parsePagination(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			cabinets, count, err := srv.Cabinets.List(r.Context(), user, p.options())
			if err != nil {
				respondError(srv, w, "Error listing cabinets", err, logArgs)
				return
			}

			results := make([]CabinetResponse, 0, len(cabinets))
			for i := range cabinets {
				results = append(results, newCabinetResponse(&cabinets[i]))
			}
			writeJSON(srv, w, http.StatusOK,
				newListResponse(r, p, count, results), logArgs)

		case "POST":
			// Callers without the create grant get 403 whatever the body.
			if err := srv.Cabinets.CheckCreate(r.Context(), user); err != nil {
				respondError(srv, w, "Error creating cabinet", err, logArgs)
				return
			}

			var req CabinetRequest
			if err := decodeRequest(r, &req); err != nil {
				srv.Logger.Warn("error decoding cabinet request",
					append(logArgs, "error", err)...)
				http.Error(w, "Bad request: "+err.Error(), http.StatusBadRequest)
				return
			}

			documentIDs, err := services.ParseIDList(req.DocumentsPKList)
			if err != nil {
				http.Error(w, "Bad request: "+err.Error(), http.StatusBadRequest)
				return
			}
			label := ""
			if req.Label != nil {
				label = *req.Label
			}

			c, err := srv.Cabinets.Create(r.Context(), user, label, documentIDs)
			if err != nil {
				respondError(srv, w, "Error creating cabinet", err, logArgs)
				return
			}

			writeJSON(srv, w, http.StatusCreated, newCabinetResponse(c), logArgs)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
	})
}

// CabinetHandler handles retrieving, updating and deleting a cabinet.
func CabinetHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"path", r.URL.Path,
			"method", r.Method,
		}
		user := auth.MustGetUser(r.Context())

		id, err := parseIDParam(r, "id")
		if err != nil {
			http.Error(w, "Not found.", http.StatusNotFound)
			return
		}
		logArgs = append(logArgs, "cabinet_id", id)

		switch r.Method {
		case "GET":
			c, err := srv.Cabinets.Get(r.Context(), user, id)
			if err != nil {
				respondError(srv, w, "Error getting cabinet", err, logArgs)
				return
			}
			writeJSON(srv, w, http.StatusOK, newCabinetResponse(c), logArgs)

		case "PATCH", "PUT":
			var req CabinetRequest
			if err := decodeRequest(r, &req); err != nil {
				http.Error(w, "Bad request: "+err.Error(), http.StatusBadRequest)
				return
			}
			if r.Method == "PUT" && req.Label == nil {
				// Run the edit check first so a missing grant is still a 404.
				if _, err := srv.Cabinets.Update(r.Context(), user, id, nil); err != nil {
					respondError(srv, w, "Error updating cabinet", err, logArgs)
					return
				}
				http.Error(w, "Bad request: label: cannot be blank",
					http.StatusBadRequest)
				return
			}

			c, err := srv.Cabinets.Update(r.Context(), user, id, req.Label)
			if err != nil {
				respondError(srv, w, "Error updating cabinet", err, logArgs)
				return
			}
			writeJSON(srv, w, http.StatusOK, newCabinetResponse(c), logArgs)

		case "DELETE":
			if err := srv.Cabinets.Delete(r.Context(), user, id); err != nil {
				respondError(srv, w, "Error deleting cabinet", err, logArgs)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
	})
}

// CabinetDocumentsHandler handles listing and attaching the documents of a
// cabinet.
func CabinetDocumentsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"path", r.URL.Path,
			"method", r.Method,
		}
		user := auth.MustGetUser(r.Context())

		id, err := parseIDParam(r, "id")
		if err != nil {
			http.Error(w, "Not found.", http.StatusNotFound)
			return
		}
		logArgs = append(logArgs, "cabinet_id", id)

		switch r.Method {
		case "GET":
			p, err := parsePagination(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			docs, count, err := srv.Cabinets.Documents(r.Context(), user, id, p.options())
			if err != nil {
				respondError(srv, w, "Error listing cabinet documents", err, logArgs)
				return
			}
			writeJSON(srv, w, http.StatusOK,
				newListResponse(r, p, count, newDocumentResponses(docs)), logArgs)

		case "POST":
			var req CabinetDocumentsRequest
			if err := decodeRequest(r, &req); err != nil {
				http.Error(w, "Bad request: "+err.Error(), http.StatusBadRequest)
				return
			}

			documentIDs, err := services.ParseIDList(req.DocumentsPKList)
			if err != nil {
				http.Error(w, "Bad request: "+err.Error(), http.StatusBadRequest)
				return
			}

			if err := srv.Cabinets.AddDocuments(r.Context(), user, id, documentIDs); err != nil {
				respondError(srv, w, "Error adding documents to cabinet", err, logArgs)
				return
			}
			w.WriteHeader(http.StatusCreated)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
	})
}

// CabinetDocumentHandler handles retrieving and detaching one document of a
// cabinet.
func CabinetDocumentHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"path", r.URL.Path,
			"method", r.Method,
		}
		user := auth.MustGetUser(r.Context())

		id, err := parseIDParam(r, "id")
		if err != nil {
			http.Error(w, "Not found.", http.StatusNotFound)
			return
		}
		documentID, err := parseIDParam(r, "document_id")
		if err != nil {
			http.Error(w, "Not found.", http.StatusNotFound)
			return
		}
		logArgs = append(logArgs, "cabinet_id", id, "document_id", documentID)

		switch r.Method {
		case "GET":
			doc, err := srv.Cabinets.Document(r.Context(), user, id, documentID)
			if err != nil {
				respondError(srv, w, "Error getting cabinet document", err, logArgs)
				return
			}
			writeJSON(srv, w, http.StatusOK, newDocumentResponse(doc), logArgs)

		case "DELETE":
			if err := srv.Cabinets.RemoveDocument(r.Context(), user, id, documentID); err != nil {
				respondError(srv, w, "Error removing document from cabinet", err, logArgs)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
	})
}
