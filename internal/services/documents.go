package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/archivist/pkg/models"
	"github.com/hashicorp-forge/archivist/pkg/parsing"
	"github.com/hashicorp-forge/archivist/pkg/permissions"
	"github.com/hashicorp-forge/archivist/pkg/storage"
)

// Upload is a file submitted as a new document or document version.
type Upload struct {
	Label       string
	Description string
	Language    string
	Comment     string

	Filename string
	MimeType string
	File     io.Reader
}

// DocumentService implements document operations on behalf of users.
type DocumentService struct {
	db         *gorm.DB
	store      *storage.Store
	engine     parsing.Engine
	processor  *DocumentProcessor
	authorizer *permissions.Authorizer
	logger     hclog.Logger
}

// NewDocumentService returns a new DocumentService. The processor may be nil,
// in which case uploads are neither parsed nor indexed.
func NewDocumentService(
	db *gorm.DB,
	store *storage.Store,
	engine parsing.Engine,
	processor *DocumentProcessor,
	authorizer *permissions.Authorizer,
	logger hclog.Logger,
) *DocumentService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &DocumentService{
		db:         db,
		store:      store,
		engine:     engine,
		processor:  processor,
		authorizer: authorizer,
		logger:     logger.Named("documents"),
	}
}

// Create stores the uploaded file as a new document with one version and a
// page per PDF page, then parses and indexes it.
func (s *DocumentService) Create(
	ctx context.Context, user *models.User, up Upload,
) (*models.Document, error) {
	var (
		doc     *models.Document
		fileKey string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := s.authorizer.CheckGlobal(tx, user, permissions.DocumentCreate)
		if err != nil {
			return err
		}
		if err := d.Err(); err != nil {
			return err
		}

		if strings.TrimSpace(up.Label) == "" && up.Filename != "" {
			up.Label = filepath.Base(up.Filename)
		}
		doc = &models.Document{
			Label:       strings.TrimSpace(up.Label),
			Description: up.Description,
			Language:    up.Language,
		}
		if err := doc.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}

		version, pageCount, err := s.storeVersion(ctx, up)
		if err != nil {
			return err
		}
		fileKey = version.FileKey

		if err := doc.Create(tx); err != nil {
			return fmt.Errorf("error creating document: %w", err)
		}
		version.DocumentID = doc.ID
		return models.NewDocumentVersion(tx, version, pageCount)
	})
	if err != nil {
		s.deleteFile(fileKey)
		return nil, err
	}

	s.logger.Info("created document",
		"document_id", doc.ID,
		"uuid", doc.UUID,
		"user", user.Username,
	)
	s.process(ctx, doc)
	return doc, nil
}

// NewVersion stores the uploaded file as a new version of the document. It
// fails with models.ErrNewVersionBlocked while new versions are blocked.
func (s *DocumentService) NewVersion(
	ctx context.Context, user *models.User, documentID uint, up Upload,
) (*models.DocumentVersion, error) {
	var (
		doc     *models.Document
		version *models.DocumentVersion
		fileKey string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		doc, err = s.get(tx, user, permissions.DocumentNewVersion, documentID)
		if err != nil {
			return err
		}

		blocked, err := models.IsNewVersionBlocked(tx, doc.ID)
		if err != nil {
			return err
		}
		if blocked {
			return models.ErrNewVersionBlocked
		}

		var pageCount int
		version, pageCount, err = s.storeVersion(ctx, up)
		if err != nil {
			return err
		}
		fileKey = version.FileKey

		version.DocumentID = doc.ID
		version.Comment = up.Comment
		return models.NewDocumentVersion(tx, version, pageCount)
	})
	if err != nil {
		s.deleteFile(fileKey)
		return nil, err
	}

	s.logger.Info("created document version",
		"document_id", doc.ID,
		"document_version_id", version.ID,
		"pages", len(version.Pages),
	)
	s.process(ctx, doc)
	return version, nil
}

// List returns the documents the user can view, newest first, and the total
// number of them.
func (s *DocumentService) List(
	ctx context.Context, user *models.User, opts ListOptions,
) ([]models.Document, int64, error) {
	db := s.db.WithContext(ctx)

	scope, err := s.authorizer.Scope(db, user, permissions.DocumentView, permissions.ObjectTypeDocument)
	if err != nil {
		return nil, 0, err
	}

	var count int64
	if err := scope.Apply(db.Model(&models.Document{}), "id").
		Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting documents: %w", err)
	}

	docs := []models.Document{}
	if err := opts.apply(scope.Apply(db.Model(&models.Document{}), "id")).
		Order("created_at DESC").
		Order("id DESC").
		Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("error listing documents: %w", err)
	}
	return docs, count, nil
}

// Get returns a document the user can view.
func (s *DocumentService) Get(
	ctx context.Context, user *models.User, id uint,
) (*models.Document, error) {
	return s.get(s.db.WithContext(ctx), user, permissions.DocumentView, id)
}

// Pages returns the pages of the latest version of a document the user can
// view.
func (s *DocumentService) Pages(
	ctx context.Context, user *models.User, id uint,
) ([]models.DocumentPage, error) {
	db := s.db.WithContext(ctx)

	doc, err := s.get(db, user, permissions.DocumentView, id)
	if err != nil {
		return nil, err
	}
	return doc.Pages(db)
}

// Delete deletes a document with its versions, files and search records.
func (s *DocumentService) Delete(ctx context.Context, user *models.User, id uint) error {
	var (
		fileKeys []string
		pageIDs  []uint
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.get(tx, user, permissions.DocumentDelete, id)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.DocumentVersion{}).
			Where("document_id = ?", doc.ID).
			Pluck("file_key", &fileKeys).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.DocumentPage{}).
			Joins("JOIN document_versions ON document_versions.id = document_pages.document_version_id").
			Where("document_versions.document_id = ?", doc.ID).
			Pluck("document_pages.id", &pageIDs).Error; err != nil {
			return err
		}

		if err := doc.Delete(tx); err != nil {
			return fmt.Errorf("error deleting document: %w", err)
		}
		return models.DeleteObjectGrants(tx, permissions.ObjectTypeDocument, doc.ID)
	})
	if err != nil {
		return err
	}

	for _, key := range fileKeys {
		s.deleteFile(key)
	}
	if s.processor != nil {
		if err := s.processor.Remove(ctx, id, pageIDs); err != nil {
			s.logger.Error("error removing document from search",
				"document_id", id,
				"error", err,
			)
		}
	}

	s.logger.Info("deleted document", "document_id", id, "user", user.Username)
	return nil
}

// storeVersion writes the upload to storage and returns an unsaved version
// for it along with the PDF page count.
func (s *DocumentService) storeVersion(
	ctx context.Context, up Upload,
) (*models.DocumentVersion, int, error) {
	if up.File == nil {
		return nil, 0, invalid("file", validation.ErrRequired)
	}

	var buf bytes.Buffer
	obj, err := s.store.Put(ctx, io.TeeReader(up.File, &buf))
	if err != nil {
		return nil, 0, fmt.Errorf("error storing file: %w", err)
	}
	if obj.Size == 0 {
		s.deleteFile(obj.Key)
		return nil, 0, invalid("file", errors.New("file is empty"))
	}

	pageCount, err := s.engine.PageCount(ctx, buf.Bytes())
	if err != nil {
		s.deleteFile(obj.Key)
		return nil, 0, invalid("file", fmt.Errorf("unreadable PDF: %w", err))
	}

	mimeType := up.MimeType
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "application/pdf"
	}
	return &models.DocumentVersion{
		FileKey:  obj.Key,
		MimeType: mimeType,
		Checksum: obj.Checksum,
		Size:     obj.Size,
	}, pageCount, nil
}

func (s *DocumentService) get(
	db *gorm.DB, user *models.User, perm permissions.Permission, id uint,
) (*models.Document, error) {
	if id == 0 {
		return nil, permissions.ErrNotFound
	}
	if err := s.authorizer.Require(db, user, perm, permissions.DocumentObject(id)); err != nil {
		return nil, err
	}

	var doc models.Document
	if err := doc.Get(db, id); err != nil {
		return nil, notFound(err)
	}
	return &doc, nil
}

func (s *DocumentService) process(ctx context.Context, doc *models.Document) {
	if s.processor == nil {
		return
	}
	if err := s.processor.Process(ctx, doc); err != nil {
		s.logger.Warn("document processing finished with errors",
			"document_id", doc.ID,
			"error", err,
		)
	}
}

func (s *DocumentService) deleteFile(key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(key); err != nil {
		s.logger.Warn("error deleting stored file", "key", key, "error", err)
	}
}
