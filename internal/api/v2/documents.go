package api

import (
	"errors"
	"net/http"

	"github.com/hashicorp-forge/archivist/internal/server"
	"github.com/hashicorp-forge/archivist/internal/services"
	"github.com/hashicorp-forge/archivist/pkg/auth"
)

const multipartMemory = 32 << 20

// DocumentsHandler handles listing and uploading documents.
//
// Uploads are multipart/form-data requests with a "file" part and optional
// "label", "description" and "language" fields.
func DocumentsHandler(srv server.Server) http.Handler {
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

			docs, count, err := srv.Documents.List(r.Context(), user, p.options())
			if err != nil {
				respondError(srv, w, "Error listing documents", err, logArgs)
				return
			}
			writeJSON(srv, w, http.StatusOK,
				newListResponse(r, p, count, newDocumentResponses(docs)), logArgs)

		case "POST":
			up, cleanup, err := parseUpload(srv, w, r)
			if err != nil {
				srv.Logger.Warn("error parsing document upload",
					append(logArgs, "error", err)...)
				http.Error(w, "Bad request: "+err.Error(), uploadErrorStatus(err))
				return
			}
			defer cleanup()

			doc, err := srv.Documents.Create(r.Context(), user, up)
			if err != nil {
				respondError(srv, w, "Error creating document", err, logArgs)
				return
			}
			writeJSON(srv, w, http.StatusCreated, newDocumentResponse(doc), logArgs)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
	})
}

// DocumentHandler handles retrieving and deleting a document.
func DocumentHandler(srv server.Server) http.Handler {
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
		logArgs = append(logArgs, "document_id", id)

		switch r.Method {
		case "GET":
			doc, err := srv.Documents.Get(r.Context(), user, id)
			if err != nil {
				respondError(srv, w, "Error getting document", err, logArgs)
				return
			}
			writeJSON(srv, w, http.StatusOK, newDocumentResponse(doc), logArgs)

		case "DELETE":
			if err := srv.Documents.Delete(r.Context(), user, id); err != nil {
				respondError(srv, w, "Error deleting document", err, logArgs)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
	})
}

// DocumentVersionsHandler handles uploading new versions of a document.
// Uploads fail with 409 Conflict while new versions are blocked.
func DocumentVersionsHandler(srv server.Server) http.Handler {
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
		logArgs = append(logArgs, "document_id", id)

		switch r.Method {
		case "POST":
			up, cleanup, err := parseUpload(srv, w, r)
			if err != nil {
				http.Error(w, "Bad request: "+err.Error(), uploadErrorStatus(err))
				return
			}
			defer cleanup()

			v, err := srv.Documents.NewVersion(r.Context(), user, id, up)
			if err != nil {
				respondError(srv, w, "Error creating document version", err, logArgs)
				return
			}
			writeJSON(srv, w, http.StatusCreated, DocumentVersionResponse{
				ID:              v.ID,
				DocumentID:      v.DocumentID,
				Comment:         v.Comment,
				MimeType:        v.MimeType,
				Checksum:        v.Checksum,
				Size:            v.Size,
				PageCount:       len(v.Pages),
				DatetimeCreated: v.CreatedAt,
			}, logArgs)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
	})
}

// DocumentPagesHandler handles listing the pages of the latest version of a
// document with their extracted text.
func DocumentPagesHandler(srv server.Server) http.Handler {
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
		logArgs = append(logArgs, "document_id", id)

		switch r.Method {
		case "GET":
			pages, err := srv.Documents.Pages(r.Context(), user, id)
			if err != nil {
				respondError(srv, w, "Error getting document pages", err, logArgs)
				return
			}

			results := make([]DocumentPageResponse, 0, len(pages))
			for i := range pages {
				results = append(results, newDocumentPageResponse(id, &pages[i]))
			}
			writeJSON(srv, w, http.StatusOK, ListResponse[DocumentPageResponse]{
				Count:   int64(len(results)),
				Results: results,
			}, logArgs)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
	})
}

// DocumentCabinetsHandler handles listing the cabinets a document is
// attached to.
func DocumentCabinetsHandler(srv server.Server) http.Handler {
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
		logArgs = append(logArgs, "document_id", id)

		switch r.Method {
		case "GET":
			cabinets, err := srv.Cabinets.ForDocument(r.Context(), user, id)
			if err != nil {
				respondError(srv, w, "Error getting document cabinets", err, logArgs)
				return
			}

			results := make([]CabinetResponse, 0, len(cabinets))
			for i := range cabinets {
				results = append(results, newCabinetResponse(&cabinets[i]))
			}
			writeJSON(srv, w, http.StatusOK, ListResponse[CabinetResponse]{
				Count:   int64(len(results)),
				Results: results,
			}, logArgs)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
	})
}

var errMissingFile = errors.New(`multipart "file" part is required`)

// parseUpload reads a multipart upload. The returned cleanup function closes
// the file and removes temporary files.
func parseUpload(
	srv server.Server, w http.ResponseWriter, r *http.Request,
) (services.Upload, func(), error) {
	maxBytes := int64(64) << 20
	if srv.Config != nil && srv.Config.Server != nil && srv.Config.Server.MaxUploadSizeMB > 0 {
		maxBytes = srv.Config.Server.MaxUploadSizeMB << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return services.Upload{}, nil, err
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		cleanup()
		return services.Upload{}, nil, errMissingFile
	} else if err != nil {
		cleanup()
		return services.Upload{}, nil, err
	}

	up := services.Upload{
		Label:       r.FormValue("label"),
		Description: r.FormValue("description"),
		Language:    r.FormValue("language"),
		Comment:     r.FormValue("comment"),
		Filename:    header.Filename,
		MimeType:    header.Header.Get("Content-Type"),
		File:        file,
	}
	return up, func() {
		file.Close()
		cleanup()
	}, nil
}

func uploadErrorStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
