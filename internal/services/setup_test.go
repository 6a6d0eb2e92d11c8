package services_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/archivist/internal/services"
	"github.com/hashicorp-forge/archivist/internal/testdb"
	"github.com/hashicorp-forge/archivist/pkg/models"
	"github.com/hashicorp-forge/archivist/pkg/parsing"
	"github.com/hashicorp-forge/archivist/pkg/permissions"
	"github.com/hashicorp-forge/archivist/pkg/search"
	"github.com/hashicorp-forge/archivist/pkg/search/adapters/bleve"
	"github.com/hashicorp-forge/archivist/pkg/storage"
)

// fakeEngine reads files written by fakePDF: a "%PDF" header followed by
// form feed separated page texts.
type fakeEngine struct{}

func (fakeEngine) Name() string { return "fake" }

func (fakeEngine) PageCount(ctx context.Context, file []byte) (int, error) {
	pages, err := fakePages(file)
	return len(pages), err
}

func (fakeEngine) ExtractText(ctx context.Context, file []byte, pageNumber int) (string, error) {
	pages, err := fakePages(file)
	if err != nil {
		return "", err
	}
	if pageNumber < 1 || pageNumber > len(pages) {
		return "", parsing.ErrPageOutOfRange
	}
	return pages[pageNumber-1], nil
}

func fakePages(file []byte) ([]string, error) {
	s := string(file)
	if !strings.HasPrefix(s, "%PDF\n") {
		return nil, errors.New("not a PDF file")
	}
	return strings.Split(strings.TrimPrefix(s, "%PDF\n"), "\f"), nil
}

func fakePDF(pages ...string) io.Reader {
	return strings.NewReader("%PDF\n" + strings.Join(pages, "\f"))
}

type testEnv struct {
	db         *gorm.DB
	authorizer *permissions.Authorizer
	cabinets   *services.CabinetService
	documents  *services.DocumentService
	search     *search.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testdb.New(t)

	store, err := storage.New(afero.NewMemMapFs(), "/files")
	require.NoError(t, err)

	provider, err := bleve.NewMemOnly()
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })

	authorizer := permissions.NewAuthorizer(nil)
	parser := parsing.NewParser(db, store, fakeEngine{}, nil)
	processor := services.NewDocumentProcessor(parser, search.NewIndexer(db, provider), nil)

	return &testEnv{
		db:         db,
		authorizer: authorizer,
		cabinets:   services.NewCabinetService(db, authorizer, nil),
		documents:  services.NewDocumentService(db, store, fakeEngine{}, processor, authorizer, nil),
		search:     search.NewService(db, provider, authorizer, nil),
	}
}

func (e *testEnv) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username}
	require.NoError(t, u.Create(e.db))
	return u
}

func (e *testEnv) admin(t *testing.T) *models.User {
	t.Helper()
	u := &models.User{Username: "admin", IsAdmin: true}
	require.NoError(t, u.Create(e.db))
	return u
}

// grant grants perm to the user on obj, or globally when obj is nil.
func (e *testEnv) grant(t *testing.T, u *models.User, perm permissions.Permission, obj *permissions.Object) {
	t.Helper()
	_, err := permissions.Grant(e.db, permissions.UserSubject(u), perm, obj)
	require.NoError(t, err)
}

func (e *testEnv) document(t *testing.T, label string) *models.Document {
	t.Helper()
	doc := &models.Document{Label: label}
	require.NoError(t, doc.Create(e.db))
	v := &models.DocumentVersion{DocumentID: doc.ID, FileKey: "key-" + label}
	require.NoError(t, models.NewDocumentVersion(e.db, v, 1))
	return doc
}

func (e *testEnv) cabinet(t *testing.T, label string, docs ...*models.Document) *models.Cabinet {
	t.Helper()
	c := &models.Cabinet{Label: label}
	require.NoError(t, c.Create(e.db))
	ids := make([]uint, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	require.NoError(t, c.AddDocuments(e.db, ids))
	return c
}

func (e *testEnv) cabinetCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Cabinet{}).Count(&n).Error)
	return n
}

func cabinetObj(c *models.Cabinet) *permissions.Object {
	o := permissions.CabinetObject(c.ID)
	return &o
}

func documentObj(d *models.Document) *permissions.Object {
	o := permissions.DocumentObject(d.ID)
	return &o
}

func documentIDs(docs []models.Document) []uint {
	ids := make([]uint, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids
}

func fakeText(s string) io.Reader {
	return strings.NewReader(s)
}

func strPtr(s string) *string { return &s }
