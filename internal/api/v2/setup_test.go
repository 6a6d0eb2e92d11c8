package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/archivist/internal/config"
	"github.com/hashicorp-forge/archivist/internal/server"
	"github.com/hashicorp-forge/archivist/internal/testdb"
	"github.com/hashicorp-forge/archivist/pkg/models"
	"github.com/hashicorp-forge/archivist/pkg/parsing"
	"github.com/hashicorp-forge/archivist/pkg/permissions"
	"github.com/hashicorp-forge/archivist/pkg/search/adapters/bleve"
	"github.com/hashicorp-forge/archivist/pkg/storage"
)

// testEngine reads files made by testPDF: a "%PDF" line followed by form
// feed separated page texts.
type testEngine struct{}

func (testEngine) Name() string { return "test" }

func (testEngine) PageCount(ctx context.Context, file []byte) (int, error) {
	pages, err := testPages(file)
	return len(pages), err
}

func (testEngine) ExtractText(ctx context.Context, file []byte, pageNumber int) (string, error) {
	pages, err := testPages(file)
	if err != nil {
		return "", err
	}
	if pageNumber < 1 || pageNumber > len(pages) {
		return "", parsing.ErrPageOutOfRange
	}
	return pages[pageNumber-1], nil
}

func testPages(file []byte) ([]string, error) {
	s := string(file)
	if !strings.HasPrefix(s, "%PDF\n") {
		return nil, errors.New("not a PDF file")
	}
	return strings.Split(strings.TrimPrefix(s, "%PDF\n"), "\f"), nil
}

func testPDF(pages ...string) string {
	return "%PDF\n" + strings.Join(pages, "\f")
}

type testAPI struct {
	t       *testing.T
	db      *gorm.DB
	srv     server.Server
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db := testdb.New(t)
	log := hclog.NewNullLogger()

	store, err := storage.New(afero.NewMemMapFs(), "/files")
	require.NoError(t, err)

	provider, err := bleve.NewMemOnly()
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })

	srv := server.New(config.Default(), db, store, testEngine{}, provider, log)
	return &testAPI{
		t:       t,
		db:      db,
		srv:     srv,
		handler: NewRouter(srv),
	}
}

// user creates a user and returns it with an API token.
func (a *testAPI) user(username string) (*models.User, string) {
	a.t.Helper()

	u := &models.User{Username: username}
	require.NoError(a.t, u.Create(a.db))

	token, _, err := models.IssueToken(a.db, u.ID, 0)
	require.NoError(a.t, err)
	return u, token
}

func (a *testAPI) admin() (*models.User, string) {
	a.t.Helper()

	u, token := a.user("admin")
	require.NoError(a.t, a.db.Model(u).Update("is_admin", true).Error)
	u.IsAdmin = true
	return u, token
}

func (a *testAPI) grant(u *models.User, perm permissions.Permission, obj *permissions.Object) {
	a.t.Helper()
	_, err := permissions.Grant(a.db, permissions.UserSubject(u), perm, obj)
	require.NoError(a.t, err)
}

func (a *testAPI) document(label string) *models.Document {
	a.t.Helper()

	doc := &models.Document{Label: label}
	require.NoError(a.t, doc.Create(a.db))
	v := &models.DocumentVersion{DocumentID: doc.ID, FileKey: "key-" + label}
	require.NoError(a.t, models.NewDocumentVersion(a.db, v, 1))
	return doc
}

func (a *testAPI) cabinet(label string, docs ...*models.Document) *models.Cabinet {
	a.t.Helper()

	c := &models.Cabinet{Label: label}
	require.NoError(a.t, c.Create(a.db))
	ids := make([]uint, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	require.NoError(a.t, c.AddDocuments(a.db, ids))
	return c
}

func (a *testAPI) cabinetCount() int64 {
	a.t.Helper()
	var n int64
	require.NoError(a.t, a.db.Model(&models.Cabinet{}).Count(&n).Error)
	return n
}

// do sends a request with a JSON body (when body is not nil) and the token.
func (a *testAPI) do(token, method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

// upload sends a multipart request with a "file" part and form fields.
func (a *testAPI) upload(
	token, path, filename, content string, fields map[string]string,
) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(a.t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(a.t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(a.t, err)
	}
	require.NoError(a.t, mw.Close())

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func cabinetObj(c *models.Cabinet) *permissions.Object {
	o := permissions.CabinetObject(c.ID)
	return &o
}

func documentObj(d *models.Document) *permissions.Object {
	o := permissions.DocumentObject(d.ID)
	return &o
}

func responseIDs(docs []DocumentResponse) []uint {
	ids := make([]uint, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids
}
