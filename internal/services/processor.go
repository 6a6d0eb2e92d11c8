package services

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/archivist/pkg/models"
	"github.com/hashicorp-forge/archivist/pkg/parsing"
	"github.com/hashicorp-forge/archivist/pkg/search"
)

// DocumentProcessor runs the post upload pipeline: text extraction of the
// latest version followed by search indexing.
type DocumentProcessor struct {
	parser  *parsing.Parser
	indexer *search.Indexer
	logger  hclog.Logger
}

// NewDocumentProcessor returns a new DocumentProcessor.
func NewDocumentProcessor(
	parser *parsing.Parser, indexer *search.Indexer, logger hclog.Logger,
) *DocumentProcessor {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &DocumentProcessor{
		parser:  parser,
		indexer: indexer,
		logger:  logger.Named("processor"),
	}
}

// Process parses the latest version of the document and indexes it. Pages
// that failed to parse are indexed without content; all failures are
// returned together.
func (p *DocumentProcessor) Process(ctx context.Context, doc *models.Document) error {
	var result *multierror.Error

	if err := p.parser.ProcessDocument(ctx, doc); err != nil {
		p.logger.Warn("error parsing document",
			"document_id", doc.ID,
			"error", err,
		)
		result = multierror.Append(result, fmt.Errorf("error parsing document: %w", err))
	}

	if err := p.indexer.IndexDocument(ctx, doc); err != nil {
		p.logger.Error("error indexing document",
			"document_id", doc.ID,
			"error", err,
		)
		result = multierror.Append(result, fmt.Errorf("error indexing document: %w", err))
	}

	return result.ErrorOrNil()
}

// Remove removes a deleted document and its pages from the search indexes.
func (p *DocumentProcessor) Remove(ctx context.Context, documentID uint, pageIDs []uint) error {
	return p.indexer.RemoveDocument(ctx, documentID, pageIDs)
}
