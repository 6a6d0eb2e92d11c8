// Package search provides full-text search over documents and document pages.
//
// Backends implement Provider. The Service type is the entry point for
// callers: it restricts every query to the documents the caller may view,
// both before the backend is queried and again when results are loaded.
package search

import (
	"context"
	"fmt"
)

// Kind is the type of object stored in an index.
type Kind string

const (
	// KindDocument records hold a document's label, description and text.
	KindDocument Kind = "documents"

	// KindDocumentPage records hold the text of one page.
	KindDocumentPage Kind = "document_pages"
)

// Record is an object stored in a search index.
type Record struct {
	// ObjectID uniquely identifies the record within its index.
	ObjectID string `json:"objectID" mapstructure:"objectID"`

	DocumentID uint `json:"documentID" mapstructure:"documentID"`

	// PageID and PageNumber are only set for page records.
	PageID     uint `json:"pageID,omitempty" mapstructure:"pageID"`
	PageNumber int  `json:"pageNumber,omitempty" mapstructure:"pageNumber"`

	Label       string `json:"label" mapstructure:"label"`
	Description string `json:"description,omitempty" mapstructure:"description"`
	Content     string `json:"content,omitempty" mapstructure:"content"`
}

// DocumentObjectID returns the object ID of a document record.
func DocumentObjectID(documentID uint) string {
	return fmt.Sprintf("document-%d", documentID)
}

// PageObjectID returns the object ID of a page record.
func PageObjectID(pageID uint) string {
	return fmt.Sprintf("page-%d", pageID)
}

// Query is a full-text query.
type Query struct {
	// Text is matched against the label, description and content fields.
	Text string

	// DocumentIDs restricts results to these documents. A nil slice means no
	// restriction; an empty non-nil slice matches nothing.
	DocumentIDs []uint

	// Limit is the maximum number of hits. Zero means DefaultLimit.
	Limit int
}

// DefaultLimit is the number of hits returned when Query.Limit is zero.
const DefaultLimit = 1000

// Restricted reports whether the query is restricted to a set of documents.
func (q *Query) Restricted() bool {
	return q.DocumentIDs != nil
}

// Hit is a search result, in relevance order.
type Hit struct {
	ObjectID   string
	DocumentID uint
	PageID     uint
	Score      float64
}

// Index is a single search index.
type Index interface {
	// Index adds or replaces records.
	Index(ctx context.Context, records ...*Record) error

	// Delete removes records by object ID. Unknown IDs are ignored.
	Delete(ctx context.Context, objectIDs ...string) error

	// Search returns the IDs of matching records in relevance order.
	Search(ctx context.Context, query *Query) ([]Hit, error)

	// Clear removes all records.
	Clear(ctx context.Context) error
}

// Provider is a search backend.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Healthy checks if the search backend is accessible.
	Healthy(ctx context.Context) error

	// DocumentIndex returns the index of document records.
	DocumentIndex() Index

	// DocumentPageIndex returns the index of page records.
	DocumentPageIndex() Index

	// Close releases backend resources.
	Close() error
}
