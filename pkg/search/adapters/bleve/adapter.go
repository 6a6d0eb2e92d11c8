package bleve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/mitchellh/mapstructure"

	"github.com/hashicorp-forge/archivist/pkg/search"
)

// Adapter implements search.Provider for Bleve (embedded full-text search).
type Adapter struct {
	docsIndex  *index
	pagesIndex *index
}

// Config contains Bleve configuration.
type Config struct {
	// IndexPath is the base directory for the indexes. Indexes are kept in
	// memory when it is empty.
	IndexPath string `hcl:"index_path,optional"`
}

// NewAdapter creates a new Bleve search adapter.
func NewAdapter(cfg *Config) (*Adapter, error) {
	if cfg == nil || cfg.IndexPath == "" {
		return NewMemOnly()
	}

	if err := os.MkdirAll(cfg.IndexPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	return newAdapter(
		filepath.Join(cfg.IndexPath, "documents.bleve"),
		filepath.Join(cfg.IndexPath, "document_pages.bleve"),
	)
}

// NewMemOnly creates an adapter whose indexes live in memory.
func NewMemOnly() (*Adapter, error) {
	return newAdapter("", "")
}

func newAdapter(docsPath, pagesPath string) (*Adapter, error) {
	docs, err := openIndex(docsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open documents index: %w", err)
	}

	pages, err := openIndex(pagesPath)
	if err != nil {
		docs.close()
		return nil, fmt.Errorf("failed to open document pages index: %w", err)
	}

	return &Adapter{docsIndex: docs, pagesIndex: pages}, nil
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return "bleve"
}

// Healthy checks if the indexes are accessible.
func (a *Adapter) Healthy(ctx context.Context) error {
	for _, idx := range []*index{a.docsIndex, a.pagesIndex} {
		if _, err := idx.docCount(); err != nil {
			return &search.Error{Op: "Healthy", Err: search.ErrBackendUnavailable, Msg: err.Error()}
		}
	}
	return nil
}

// DocumentIndex returns the index of document records.
func (a *Adapter) DocumentIndex() search.Index {
	return a.docsIndex
}

// DocumentPageIndex returns the index of page records.
func (a *Adapter) DocumentPageIndex() search.Index {
	return a.pagesIndex
}

// Close closes both indexes.
func (a *Adapter) Close() error {
	return errors.Join(a.docsIndex.close(), a.pagesIndex.close())
}

// index implements search.Index on a single Bleve index.
type index struct {
	mu    sync.RWMutex
	path  string
	index bleve.Index
}

// openIndex opens an existing Bleve index at path or creates a new one. An
// empty path creates an in-memory index.
func openIndex(path string) (*index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(createRecordMapping())
		if err != nil {
			return nil, err
		}
		return &index{index: idx}, nil
	}

	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, createRecordMapping())
	}
	if err != nil {
		return nil, err
	}
	return &index{path: path, index: idx}, nil
}

// createRecordMapping creates the index mapping for search records.
func createRecordMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = "en" // English analyzer with stemming

	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	keywordFieldMapping.IncludeInAll = false

	numericFieldMapping := bleve.NewNumericFieldMapping()
	numericFieldMapping.IncludeInAll = false

	recordMapping := bleve.NewDocumentMapping()

	// Searchable text fields
	recordMapping.AddFieldMappingsAt("label", textFieldMapping)
	recordMapping.AddFieldMappingsAt("description", textFieldMapping)
	recordMapping.AddFieldMappingsAt("content", textFieldMapping)

	// Keyword fields for exact matching
	recordMapping.AddFieldMappingsAt("objectID", keywordFieldMapping)
	recordMapping.AddFieldMappingsAt("documentID", keywordFieldMapping)
	recordMapping.AddFieldMappingsAt("pageID", keywordFieldMapping)

	// Lower-cased label as a single term for substring matches.
	recordMapping.AddFieldMappingsAt("labelLower", keywordFieldMapping)

	recordMapping.AddFieldMappingsAt("pageNumber", numericFieldMapping)

	indexMapping.DefaultMapping = recordMapping

	return indexMapping
}

func (i *index) docCount() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.index.DocCount()
}

func (i *index) close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.index.Close()
}

// Index adds or replaces records.
func (i *index) Index(ctx context.Context, records ...*search.Record) error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	batch := i.index.NewBatch()
	for _, r := range records {
		if r.ObjectID == "" {
			return &search.Error{Op: "Index", Err: search.ErrIndexingFailed, Msg: "record has no object ID"}
		}
		if err := batch.Index(r.ObjectID, toDocument(r)); err != nil {
			return &search.Error{Op: "Index", Err: err, Msg: "failed to add record to batch"}
		}
	}

	if err := i.index.Batch(batch); err != nil {
		return &search.Error{Op: "Index", Err: err}
	}
	return nil
}

// Delete removes records by object ID.
func (i *index) Delete(ctx context.Context, objectIDs ...string) error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	batch := i.index.NewBatch()
	for _, id := range objectIDs {
		batch.Delete(id)
	}

	if err := i.index.Batch(batch); err != nil {
		return &search.Error{Op: "Delete", Err: err}
	}
	return nil
}

// Search returns matching records in relevance order.
func (i *index) Search(ctx context.Context, q *search.Query) ([]search.Hit, error) {
	if q.Restricted() && len(q.DocumentIDs) == 0 {
		return []search.Hit{}, nil
	}

	bq, err := buildQuery(q)
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = search.DefaultLimit
	}

	req := bleve.NewSearchRequestOptions(bq, limit, 0, false)
	req.Fields = []string{"objectID", "documentID", "pageID"}

	i.mu.RLock()
	res, err := i.index.SearchInContext(ctx, req)
	i.mu.RUnlock()
	if err != nil {
		return nil, &search.Error{Op: "Search", Err: err, Msg: "search failed"}
	}

	hits := make([]search.Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		var rec search.Record
		if err := decodeFields(h.Fields, &rec); err != nil {
			return nil, &search.Error{Op: "Search", Err: err, Msg: "failed to decode hit " + h.ID}
		}
		hits = append(hits, search.Hit{
			ObjectID:   h.ID,
			DocumentID: rec.DocumentID,
			PageID:     rec.PageID,
			Score:      h.Score,
		})
	}
	return hits, nil
}

// Clear removes all records by recreating the index.
func (i *index) Clear(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.index.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}

	var (
		newIndex bleve.Index
		err      error
	)
	if i.path == "" {
		newIndex, err = bleve.NewMemOnly(createRecordMapping())
	} else {
		if err := os.RemoveAll(i.path); err != nil {
			return fmt.Errorf("failed to remove index: %w", err)
		}
		newIndex, err = bleve.New(i.path, createRecordMapping())
	}
	if err != nil {
		return fmt.Errorf("failed to recreate index: %w", err)
	}

	i.index = newIndex
	return nil
}

// labelSubstringQuery matches records whose label contains text, ignoring
// case. Wildcard metacharacters in text match any single character.
func labelSubstringQuery(text string) query.Query {
	pattern := strings.NewReplacer("*", "?").Replace(strings.ToLower(text))
	wq := bleve.NewWildcardQuery("*" + pattern + "*")
	wq.SetField("labelLower")
	return wq
}

// buildQuery matches the text against the text fields or as a label
// substring and, for restricted queries, requires the document ID to be one
// of the allowed ones.
func buildQuery(q *search.Query) (query.Query, error) {
	if q.Text == "" {
		return nil, &search.Error{Op: "Search", Err: search.ErrInvalidQuery, Msg: "empty query"}
	}

	text := bleve.NewDisjunctionQuery()
	for _, field := range []string{"label", "description", "content"} {
		mq := bleve.NewMatchQuery(q.Text)
		mq.SetField(field)
		mq.SetOperator(query.MatchQueryOperatorAnd)
		text.AddQuery(mq)
	}
	text.AddQuery(labelSubstringQuery(q.Text))

	if !q.Restricted() {
		return text, nil
	}

	allowed := bleve.NewDisjunctionQuery()
	for _, id := range q.DocumentIDs {
		tq := bleve.NewTermQuery(strconv.FormatUint(uint64(id), 10))
		tq.SetField("documentID")
		allowed.AddQuery(tq)
	}

	return bleve.NewConjunctionQuery(text, allowed), nil
}

// toDocument converts a record to the document stored in Bleve. IDs are
// stored as keywords so they can be matched exactly.
func toDocument(r *search.Record) map[string]any {
	doc := map[string]any{
		"objectID":    r.ObjectID,
		"documentID":  strconv.FormatUint(uint64(r.DocumentID), 10),
		"label":       r.Label,
		"labelLower":  strings.ToLower(r.Label),
		"description": r.Description,
		"content":     r.Content,
	}
	if r.PageID != 0 {
		doc["pageID"] = strconv.FormatUint(uint64(r.PageID), 10)
		doc["pageNumber"] = r.PageNumber
	}
	return doc
}

// decodeFields decodes the stored fields of a hit.
func decodeFields(fields map[string]any, rec *search.Record) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           rec,
	})
	if err != nil {
		return err
	}
	return dec.Decode(fields)
}
