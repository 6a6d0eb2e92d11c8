package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/archivist/pkg/models"
)

// Indexer keeps the search indexes in sync with the database. Backend calls
// are retried with exponential backoff.
type Indexer struct {
	db       *gorm.DB
	provider Provider
	logger   hclog.Logger
	backOff  func() backoff.BackOff
}

// IndexerOption is a functional option for creating an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) IndexerOption {
	return func(ix *Indexer) {
		if logger != nil {
			ix.logger = logger
		}
	}
}

// WithBackOff sets the retry policy used for backend calls.
func WithBackOff(f func() backoff.BackOff) IndexerOption {
	return func(ix *Indexer) {
		ix.backOff = f
	}
}

// NewIndexer creates a new Indexer.
func NewIndexer(db *gorm.DB, provider Provider, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		db:       db,
		provider: provider,
		logger:   hclog.NewNullLogger(),
		backOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(200*time.Millisecond),
				backoff.WithMaxElapsedTime(30*time.Second),
			), 5)
		},
	}
	for _, opt := range opts {
		opt(ix)
	}
	ix.logger = ix.logger.Named("indexer")
	return ix
}

// IndexDocument indexes the document and the pages of its latest version.
// Page records of older versions are removed.
func (ix *Indexer) IndexDocument(ctx context.Context, doc *models.Document) error {
	db := ix.db.WithContext(ctx)

	pages, err := doc.Pages(db)
	if err != nil {
		return &Error{Op: "IndexDocument", Err: err, Msg: "error getting pages"}
	}

	texts := make([]string, 0, len(pages))
	pageRecords := make([]*Record, 0, len(pages))
	for i := range pages {
		p := &pages[i]
		if text := p.Text(); text != "" {
			texts = append(texts, text)
		}
		pageRecords = append(pageRecords, &Record{
			ObjectID:   PageObjectID(p.ID),
			DocumentID: doc.ID,
			PageID:     p.ID,
			PageNumber: p.PageNumber,
			Label:      doc.Label,
			Content:    p.Text(),
		})
	}

	docRecord := &Record{
		ObjectID:    DocumentObjectID(doc.ID),
		DocumentID:  doc.ID,
		Label:       doc.Label,
		Description: doc.Description,
		Content:     strings.Join(texts, "\n\n"),
	}

	stale, err := ix.stalePageObjectIDs(db, doc)
	if err != nil {
		return &Error{Op: "IndexDocument", Err: err, Msg: "error getting stale pages"}
	}

	var result *multierror.Error
	if err := ix.retry(ctx, "IndexDocument", func() error {
		return ix.provider.DocumentIndex().Index(ctx, docRecord)
	}); err != nil {
		result = multierror.Append(result, err)
	}
	if len(pageRecords) > 0 {
		if err := ix.retry(ctx, "IndexDocumentPages", func() error {
			return ix.provider.DocumentPageIndex().Index(ctx, pageRecords...)
		}); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if len(stale) > 0 {
		if err := ix.retry(ctx, "DeleteStalePages", func() error {
			return ix.provider.DocumentPageIndex().Delete(ctx, stale...)
		}); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		ix.logger.Error("error indexing document",
			"document_id", doc.ID,
			"error", err,
		)
		return err
	}

	ix.logger.Debug("indexed document",
		"document_id", doc.ID,
		"pages", len(pageRecords),
		"stale_pages", len(stale),
	)
	return nil
}

// RemoveDocument removes the document and the given pages from the indexes.
func (ix *Indexer) RemoveDocument(ctx context.Context, documentID uint, pageIDs []uint) error {
	var result *multierror.Error

	if err := ix.retry(ctx, "RemoveDocument", func() error {
		return ix.provider.DocumentIndex().Delete(ctx, DocumentObjectID(documentID))
	}); err != nil {
		result = multierror.Append(result, err)
	}

	if len(pageIDs) > 0 {
		objectIDs := make([]string, 0, len(pageIDs))
		for _, id := range pageIDs {
			objectIDs = append(objectIDs, PageObjectID(id))
		}
		if err := ix.retry(ctx, "RemoveDocumentPages", func() error {
			return ix.provider.DocumentPageIndex().Delete(ctx, objectIDs...)
		}); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// Reindex clears both indexes and indexes every document. It returns the
// number of documents indexed.
func (ix *Indexer) Reindex(ctx context.Context) (int, error) {
	for _, idx := range []Index{ix.provider.DocumentIndex(), ix.provider.DocumentPageIndex()} {
		if err := idx.Clear(ctx); err != nil {
			return 0, &Error{Op: "Reindex", Err: err, Msg: "error clearing index"}
		}
	}

	var (
		docs    []models.Document
		indexed int
		result  *multierror.Error
	)
	err := ix.db.WithContext(ctx).
		Order("id ASC").
		FindInBatches(&docs, 100, func(tx *gorm.DB, batch int) error {
			for i := range docs {
				if err := ix.IndexDocument(ctx, &docs[i]); err != nil {
					result = multierror.Append(result,
						fmt.Errorf("document %d: %w", docs[i].ID, err))
					continue
				}
				indexed++
			}
			return ctx.Err()
		}).Error
	if err != nil {
		result = multierror.Append(result, err)
	}

	ix.logger.Info("reindexed documents", "indexed", indexed)
	return indexed, result.ErrorOrNil()
}

// stalePageObjectIDs returns the object IDs of pages that belong to versions
// other than the latest one.
func (ix *Indexer) stalePageObjectIDs(db *gorm.DB, doc *models.Document) ([]string, error) {
	latest, err := doc.LatestVersion(db)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var ids []uint
	if err := db.Model(&models.DocumentPage{}).
		Joins("JOIN document_versions ON document_versions.id = document_pages.document_version_id").
		Where("document_versions.document_id = ? AND document_versions.id <> ?", doc.ID, latest.ID).
		Pluck("document_pages.id", &ids).
		Error; err != nil {
		return nil, err
	}

	objectIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		objectIDs = append(objectIDs, PageObjectID(id))
	}
	return objectIDs, nil
}

func (ix *Indexer) retry(ctx context.Context, op string, fn func() error) error {
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrInvalidQuery) {
			return backoff.Permanent(err)
		}
		ix.logger.Warn("search backend call failed",
			"operation", op,
			"attempt", attempt,
			"error", err,
		)
		return err
	}, backoff.WithContext(ix.backOff(), ctx))
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("%w: %w", ErrIndexingFailed, err)}
	}
	return nil
}
