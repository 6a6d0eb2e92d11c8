package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/mapstructure"

	"github.com/hashicorp-forge/archivist/internal/server"
	"github.com/hashicorp-forge/archivist/internal/services"
	"github.com/hashicorp-forge/archivist/pkg/models"
	"github.com/hashicorp-forge/archivist/pkg/permissions"
	"github.com/hashicorp-forge/archivist/pkg/search"
)

const (
	defaultPageSize = 40
	maxPageSize     = 1000
)

// ListResponse is the envelope of every list endpoint.
type ListResponse[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// pagination is the page requested with the page and page_size query
// parameters.
type pagination struct {
	page     int
	pageSize int
}

func parsePagination(r *http.Request) (pagination, error) {
	p := pagination{page: 1, pageSize: defaultPageSize}
	q := r.URL.Query()

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, fmt.Errorf("invalid page %q", v)
		}
		p.page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, fmt.Errorf("invalid page_size %q", v)
		}
		p.pageSize = min(n, maxPageSize)
	}
	return p, nil
}

func (p pagination) options() services.ListOptions {
	return services.ListOptions{
		Offset: (p.page - 1) * p.pageSize,
		Limit:  p.pageSize,
	}
}

// newListResponse builds the list envelope with links to the neighbouring
// pages.
func newListResponse[T any](r *http.Request, p pagination, count int64, results []T) ListResponse[T] {
	resp := ListResponse[T]{Count: count, Results: results}
	if resp.Results == nil {
		resp.Results = []T{}
	}

	link := func(page int) *string {
		u := url.URL{Path: r.URL.Path}
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(page))
		u.RawQuery = q.Encode()
		s := u.String()
		return &s
	}
	if int64(p.page*p.pageSize) < count {
		resp.Next = link(p.page + 1)
	}
	if p.page > 1 {
		resp.Previous = link(p.page - 1)
	}
	return resp
}

// parseIDParam returns the positive integer URL parameter key.
func parseIDParam(r *http.Request, key string) (uint, error) {
	v := chi.URLParam(r, key)
	id, err := strconv.ParseUint(v, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return uint(id), nil
}

// decodeRequest decodes a JSON or form encoded request body into v. Form
// values are matched to v's json tags.
func decodeRequest(r *http.Request, v any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(32 << 20); err != nil &&
			!errors.Is(err, http.ErrNotMultipart) {
			return err
		}

		values := make(map[string]any, len(r.PostForm))
		for k, vs := range r.PostForm {
			if len(vs) > 0 {
				values[k] = vs[0]
			}
		}

		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "json",
			WeaklyTypedInput: true,
			Result:           v,
		})
		if err != nil {
			return err
		}
		return dec.Decode(values)

	default:
		if err := json.NewDecoder(r.Body).Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return errors.New("request body is empty")
			}
			return err
		}
		return nil
	}
}

func writeJSON(srv server.Server, w http.ResponseWriter, status int, v any, logArgs []any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		srv.Logger.Error("error encoding response",
			append(logArgs, "error", err)...)
	}
}

// respondError maps service errors to HTTP status codes. Denied object
// permissions are indistinguishable from missing objects.
func respondError(srv server.Server, w http.ResponseWriter, msg string, err error, logArgs []any) {
	switch {
	case errors.Is(err, permissions.ErrForbidden):
		http.Error(w, "You do not have permission to perform this action.",
			http.StatusForbidden)
	case errors.Is(err, permissions.ErrNotFound):
		http.Error(w, "Not found.", http.StatusNotFound)
	case errors.Is(err, services.ErrInvalid),
		errors.Is(err, search.ErrInvalidQuery):
		http.Error(w, fmt.Sprintf("Bad request: %v", err), http.StatusBadRequest)
	case errors.Is(err, models.ErrNewVersionBlocked):
		http.Error(w, "New versions of this document are blocked.",
			http.StatusConflict)
	default:
		srv.Logger.Error(msg, append(logArgs, "error", err)...)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}
