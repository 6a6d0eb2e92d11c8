package parsing

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/archivist/pkg/models"
)

// FileSource returns the file content of a document version.
type FileSource interface {
	ReadAll(key string) ([]byte, error)
}

// Parser extracts page text for document versions and stores it as page
// content.
type Parser struct {
	db     *gorm.DB
	files  FileSource
	engine Engine
	logger hclog.Logger
}

// NewParser returns a new Parser.
func NewParser(db *gorm.DB, files FileSource, engine Engine, logger hclog.Logger) *Parser {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Parser{
		db:     db,
		files:  files,
		engine: engine,
		logger: logger.Named("parser"),
	}
}

// ProcessDocumentVersion extracts the text of every page of the version in
// page order and stores it as the page content. Pages are processed
// independently: a failure on one page is collected and the remaining pages
// are still processed. Rerunning replaces previous content.
func (p *Parser) ProcessDocumentVersion(ctx context.Context, version *models.DocumentVersion) error {
	logArgs := []any{
		"document_id", version.DocumentID,
		"document_version_id", version.ID,
		"engine", p.engine.Name(),
	}

	file, err := p.files.ReadAll(version.FileKey)
	if err != nil {
		return fmt.Errorf("error reading document version file: %w", err)
	}

	pages, err := version.OrderedPages(p.db.WithContext(ctx))
	if err != nil {
		return err
	}

	var result *multierror.Error
	parsed := 0
	for i := range pages {
		page := &pages[i]

		if err := ctx.Err(); err != nil {
			return multierror.Append(result, err).ErrorOrNil()
		}

		text, err := p.engine.ExtractText(ctx, file, page.PageNumber)
		if err != nil {
			p.logger.Warn("error extracting page text",
				append(logArgs, "page_number", page.PageNumber, "error", err)...)
			result = multierror.Append(result,
				fmt.Errorf("page %d: %w", page.PageNumber, err))
			continue
		}

		if err := page.SetContent(p.db.WithContext(ctx), text); err != nil {
			result = multierror.Append(result,
				fmt.Errorf("page %d: %w", page.PageNumber, err))
			continue
		}
		parsed++
	}

	p.logger.Info("parsed document version",
		append(logArgs, "pages", len(pages), "parsed", parsed)...)

	return result.ErrorOrNil()
}

// ProcessDocument parses the latest version of the document.
func (p *Parser) ProcessDocument(ctx context.Context, doc *models.Document) error {
	version, err := doc.LatestVersion(p.db.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error getting latest version: %w", err)
	}
	return p.ProcessDocumentVersion(ctx, version)
}
