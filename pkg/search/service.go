package search

import (
	"context"
	"strings"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/archivist/pkg/models"
	"github.com/hashicorp-forge/archivist/pkg/permissions"
)

// Service answers search queries on behalf of users. Results are limited to
// documents the user holds documents.document_view on; page results follow
// the visibility of their document.
type Service struct {
	db         *gorm.DB
	provider   Provider
	authorizer *permissions.Authorizer
	logger     hclog.Logger
}

// NewService returns a new Service.
func NewService(
	db *gorm.DB,
	provider Provider,
	authorizer *permissions.Authorizer,
	logger hclog.Logger,
) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Service{
		db:         db,
		provider:   provider,
		authorizer: authorizer,
		logger:     logger.Named("search"),
	}
}

// PageResult is a page matching a query.
type PageResult struct {
	DocumentID uint
	Page       models.DocumentPage
}

// SearchDocuments returns the visible documents matching text, most relevant
// first.
func (s *Service) SearchDocuments(
	ctx context.Context, user *models.User, text string,
) ([]models.Document, error) {
	scope, hits, err := s.search(ctx, user, text, s.provider.DocumentIndex(), "SearchDocuments")
	if err != nil || len(hits) == 0 {
		return []models.Document{}, err
	}

	ids := make([]uint, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.DocumentID)
	}

	// Visibility is checked again against the database in case grants changed
	// or the index is stale.
	var docs models.Documents
	if err := docs.FindByIDs(scope.Apply(s.db.WithContext(ctx), "id"), ids); err != nil {
		return nil, &Error{Op: "SearchDocuments", Err: err, Msg: "error loading documents"}
	}

	// Hits can repeat a document.
	seen := make(map[uint]struct{}, len(docs))
	result := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if _, ok := seen[d.ID]; ok {
			continue
		}
		seen[d.ID] = struct{}{}
		result = append(result, d)
	}
	return result, nil
}

// SearchDocumentPages returns the pages of visible documents matching text,
// most relevant first.
func (s *Service) SearchDocumentPages(
	ctx context.Context, user *models.User, text string,
) ([]PageResult, error) {
	scope, hits, err := s.search(ctx, user, text, s.provider.DocumentPageIndex(), "SearchDocumentPages")
	if err != nil || len(hits) == 0 {
		return []PageResult{}, err
	}

	pageIDs := make([]uint, 0, len(hits))
	for _, h := range hits {
		pageIDs = append(pageIDs, h.PageID)
	}

	db := s.db.WithContext(ctx)

	var pages []models.DocumentPage
	if err := db.
		Preload("Content").
		Where("id IN ?", pageIDs).
		Find(&pages).
		Error; err != nil {
		return nil, &Error{Op: "SearchDocumentPages", Err: err, Msg: "error loading pages"}
	}

	versionIDs := make([]uint, 0, len(pages))
	for _, p := range pages {
		versionIDs = append(versionIDs, p.DocumentVersionID)
	}
	var versions []models.DocumentVersion
	if len(versionIDs) > 0 {
		if err := db.
			Select("id", "document_id").
			Where("id IN ?", versionIDs).
			Find(&versions).
			Error; err != nil {
			return nil, &Error{Op: "SearchDocumentPages", Err: err, Msg: "error loading versions"}
		}
	}
	documentByVersion := make(map[uint]uint, len(versions))
	for _, v := range versions {
		documentByVersion[v.ID] = v.DocumentID
	}

	byID := make(map[uint]models.DocumentPage, len(pages))
	for _, p := range pages {
		byID[p.ID] = p
	}

	result := make([]PageResult, 0, len(pages))
	for _, h := range hits {
		page, ok := byID[h.PageID]
		if !ok {
			continue
		}
		docID, ok := documentByVersion[page.DocumentVersionID]
		if !ok || !scope.Contains(docID) {
			continue
		}
		delete(byID, h.PageID)
		result = append(result, PageResult{DocumentID: docID, Page: page})
	}
	return result, nil
}

// search resolves the user's document scope and runs the query against idx.
// No backend call is made when the user can see no documents.
func (s *Service) search(
	ctx context.Context,
	user *models.User,
	text string,
	idx Index,
	op string,
) (permissions.Scope, []Hit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return permissions.Scope{}, nil, &Error{Op: op, Err: ErrInvalidQuery, Msg: "query text is required"}
	}

	scope, err := s.authorizer.Scope(
		s.db.WithContext(ctx), user, permissions.DocumentView, permissions.ObjectTypeDocument)
	if err != nil {
		return scope, nil, &Error{Op: op, Err: err, Msg: "error resolving document scope"}
	}
	if scope.Empty() {
		return scope, nil, nil
	}

	q := &Query{Text: text}
	if !scope.All {
		q.DocumentIDs = scope.IDs
	}

	hits, err := idx.Search(ctx, q)
	if err != nil {
		return scope, nil, &Error{Op: op, Err: err}
	}

	s.logger.Debug("search completed",
		"operation", op,
		"query", text,
		"hits", len(hits),
	)
	return scope, hits, nil
}
