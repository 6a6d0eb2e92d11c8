// Package database implements search.Provider with SQL LIKE queries over the
// application database. Records are read directly from the document tables,
// so indexing is a no-op.
package database

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/hashicorp-forge/archivist/pkg/models"
	"github.com/hashicorp-forge/archivist/pkg/search"
)

// Adapter implements search.Provider on the database.
type Adapter struct {
	db *gorm.DB
}

// NewAdapter creates a new database search adapter.
func NewAdapter(db *gorm.DB) *Adapter {
	return &Adapter{db: db}
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return "database"
}

// Healthy checks if the database is accessible.
func (a *Adapter) Healthy(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return &search.Error{Op: "Healthy", Err: search.ErrBackendUnavailable, Msg: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return &search.Error{Op: "Healthy", Err: search.ErrBackendUnavailable, Msg: err.Error()}
	}
	return nil
}

// DocumentIndex returns the index of documents.
func (a *Adapter) DocumentIndex() search.Index {
	return &documentIndex{db: a.db}
}

// DocumentPageIndex returns the index of document pages.
func (a *Adapter) DocumentPageIndex() search.Index {
	return &pageIndex{db: a.db}
}

// Close is a no-op; the database is owned by the caller.
func (a *Adapter) Close() error {
	return nil
}

// terms splits the query into lower-cased LIKE patterns. Every term must
// match.
func terms(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	patterns := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(f)
		patterns = append(patterns, "%"+f+"%")
	}
	return patterns
}

// latestVersion restricts a query joined on document_versions to the most
// recent version of each document.
const latestVersion = `document_versions.id = (SELECT MAX(latest.id) FROM document_versions latest WHERE latest.document_id = document_versions.document_id)`

func limit(q *search.Query) int {
	if q.Limit > 0 {
		return q.Limit
	}
	return search.DefaultLimit
}

type documentIndex struct {
	db *gorm.DB
}

func (i *documentIndex) Index(ctx context.Context, records ...*search.Record) error { return nil }

func (i *documentIndex) Delete(ctx context.Context, objectIDs ...string) error { return nil }

func (i *documentIndex) Clear(ctx context.Context) error { return nil }

func (i *documentIndex) Search(ctx context.Context, q *search.Query) ([]search.Hit, error) {
	patterns := terms(q.Text)
	if len(patterns) == 0 {
		return nil, &search.Error{Op: "Search", Err: search.ErrInvalidQuery, Msg: "empty query"}
	}
	if q.Restricted() && len(q.DocumentIDs) == 0 {
		return []search.Hit{}, nil
	}

	db := i.db.WithContext(ctx)
	tx := db.Model(&models.Document{})
	for _, p := range patterns {
		pageMatch := db.Model(&models.DocumentVersion{}).
			Select("document_versions.document_id").
			Joins("JOIN document_pages ON document_pages.document_version_id = document_versions.id").
			Joins("JOIN document_page_contents ON document_page_contents.document_page_id = document_pages.id").
			Where(latestVersion).
			Where(`LOWER(document_page_contents.content) LIKE ? ESCAPE '\'`, p)
		tx = tx.Where(
			`(LOWER(documents.label) LIKE ? ESCAPE '\' OR LOWER(documents.description) LIKE ? ESCAPE '\' OR documents.id IN (?))`,
			p, p, pageMatch,
		)
	}
	if q.Restricted() {
		tx = tx.Where("documents.id IN ?", q.DocumentIDs)
	}

	var ids []uint
	if err := tx.Order("documents.id ASC").Limit(limit(q)).Pluck("documents.id", &ids).Error; err != nil {
		return nil, &search.Error{Op: "Search", Err: err, Msg: "search failed"}
	}

	hits := make([]search.Hit, 0, len(ids))
	for _, id := range ids {
		hits = append(hits, search.Hit{
			ObjectID:   search.DocumentObjectID(id),
			DocumentID: id,
			Score:      1,
		})
	}
	return hits, nil
}

type pageIndex struct {
	db *gorm.DB
}

func (i *pageIndex) Index(ctx context.Context, records ...*search.Record) error { return nil }

func (i *pageIndex) Delete(ctx context.Context, objectIDs ...string) error { return nil }

func (i *pageIndex) Clear(ctx context.Context) error { return nil }

func (i *pageIndex) Search(ctx context.Context, q *search.Query) ([]search.Hit, error) {
	patterns := terms(q.Text)
	if len(patterns) == 0 {
		return nil, &search.Error{Op: "Search", Err: search.ErrInvalidQuery, Msg: "empty query"}
	}
	if q.Restricted() && len(q.DocumentIDs) == 0 {
		return []search.Hit{}, nil
	}

	tx := i.db.WithContext(ctx).
		Table("document_pages").
		Joins("JOIN document_versions ON document_versions.id = document_pages.document_version_id").
		Joins("JOIN documents ON documents.id = document_versions.document_id").
		Joins("LEFT JOIN document_page_contents ON document_page_contents.document_page_id = document_pages.id").
		Where(latestVersion)
	// A page matches a term through its own text or its document's label.
	for _, p := range patterns {
		tx = tx.Where(
			`(LOWER(COALESCE(document_page_contents.content, '')) LIKE ? ESCAPE '\' OR LOWER(documents.label) LIKE ? ESCAPE '\')`,
			p, p,
		)
	}
	if q.Restricted() {
		tx = tx.Where("document_versions.document_id IN ?", q.DocumentIDs)
	}

	var rows []struct {
		PageID     uint
		DocumentID uint
	}
	if err := tx.
		Select("document_pages.id AS page_id, document_versions.document_id AS document_id").
		Order("document_versions.document_id ASC").
		Order("document_pages.page_number ASC").
		Limit(limit(q)).
		Scan(&rows).
		Error; err != nil {
		return nil, &search.Error{Op: "Search", Err: err, Msg: "search failed"}
	}

	hits := make([]search.Hit, 0, len(rows))
	for _, r := range rows {
		hits = append(hits, search.Hit{
			ObjectID:   search.PageObjectID(r.PageID),
			DocumentID: r.DocumentID,
			PageID:     r.PageID,
			Score:      1,
		})
	}
	return hits, nil
}
