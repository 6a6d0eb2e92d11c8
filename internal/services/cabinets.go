package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/archivist/pkg/models"
	"github.com/hashicorp-forge/archivist/pkg/permissions"
)

// CabinetService implements cabinet operations on behalf of users.
type CabinetService struct {
	db         *gorm.DB
	authorizer *permissions.Authorizer
	logger     hclog.Logger
}

// NewCabinetService returns a new CabinetService.
func NewCabinetService(
	db *gorm.DB, authorizer *permissions.Authorizer, logger hclog.Logger,
) *CabinetService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &CabinetService{
		db:         db,
		authorizer: authorizer,
		logger:     logger.Named("cabinets"),
	}
}

// CheckCreate fails with ErrForbidden unless the user may create cabinets.
// Create checks again inside its transaction.
func (s *CabinetService) CheckCreate(ctx context.Context, user *models.User) error {
	d, err := s.authorizer.CheckGlobal(s.db.WithContext(ctx), user, permissions.CabinetCreate)
	if err != nil {
		return err
	}
	return d.Err()
}

// Create creates a cabinet and attaches documentIDs to it in order. It
// requires the global cabinet create permission.
func (s *CabinetService) Create(
	ctx context.Context, user *models.User, label string, documentIDs []uint,
) (*models.Cabinet, error) {
	var cabinet *models.Cabinet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := s.authorizer.CheckGlobal(tx, user, permissions.CabinetCreate)
		if err != nil {
			return err
		}
		if err := d.Err(); err != nil {
			return err
		}

		if err := models.ValidateLabel(label); err != nil {
			return invalid("label", err)
		}
		documentIDs = dedupe(documentIDs)
		if err := s.checkDocuments(tx, user, documentIDs); err != nil {
			return err
		}

		c := &models.Cabinet{Label: label}
		if err := c.Create(tx); err != nil {
			return fmt.Errorf("error creating cabinet: %w", err)
		}
		if err := c.AddDocuments(tx, documentIDs); err != nil {
			return err
		}

		cabinet = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("created cabinet",
		"cabinet_id", cabinet.ID,
		"user", user.Username,
		"documents", len(documentIDs),
	)
	return cabinet, nil
}

// List returns the cabinets the user can view, ordered by label, and the
// total number of them.
func (s *CabinetService) List(
	ctx context.Context, user *models.User, opts ListOptions,
) ([]models.Cabinet, int64, error) {
	db := s.db.WithContext(ctx)

	scope, err := s.authorizer.Scope(db, user, permissions.CabinetView, permissions.ObjectTypeCabinet)
	if err != nil {
		return nil, 0, err
	}

	var count int64
	if err := scope.Apply(db.Model(&models.Cabinet{}), "id").
		Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting cabinets: %w", err)
	}

	cabinets := []models.Cabinet{}
	if err := opts.apply(scope.Apply(db.Model(&models.Cabinet{}), "id")).
		Order("label ASC").
		Order("id ASC").
		Find(&cabinets).Error; err != nil {
		return nil, 0, fmt.Errorf("error listing cabinets: %w", err)
	}
	return cabinets, count, nil
}

// Get returns a cabinet the user can view.
func (s *CabinetService) Get(
	ctx context.Context, user *models.User, id uint,
) (*models.Cabinet, error) {
	return s.get(s.db.WithContext(ctx), user, permissions.CabinetView, id)
}

// Update sets the label of a cabinet the user can edit. A nil label leaves
// the cabinet unchanged. The cabinet's documents are never changed.
func (s *CabinetService) Update(
	ctx context.Context, user *models.User, id uint, label *string,
) (*models.Cabinet, error) {
	var cabinet *models.Cabinet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.get(tx, user, permissions.CabinetEdit, id)
		if err != nil {
			return err
		}

		if label != nil {
			if err := models.ValidateLabel(*label); err != nil {
				return invalid("label", err)
			}
			if err := c.SetLabel(tx, *label); err != nil {
				return err
			}
		}

		cabinet = c
		return nil
	})
	return cabinet, err
}

// Delete deletes a cabinet the user can delete. Attached documents are
// detached, not deleted.
func (s *CabinetService) Delete(ctx context.Context, user *models.User, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.get(tx, user, permissions.CabinetDelete, id)
		if err != nil {
			return err
		}

		if err := c.Delete(tx); err != nil {
			return err
		}
		return models.DeleteObjectGrants(tx, permissions.ObjectTypeCabinet, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("deleted cabinet", "cabinet_id", id, "user", user.Username)
	return nil
}

// Documents returns the documents of a cabinet the user can view, limited to
// the documents the user can view, in attachment order.
func (s *CabinetService) Documents(
	ctx context.Context, user *models.User, id uint, opts ListOptions,
) ([]models.Document, int64, error) {
	db := s.db.WithContext(ctx)

	c, err := s.get(db, user, permissions.CabinetView, id)
	if err != nil {
		return nil, 0, err
	}

	scope, err := s.authorizer.Scope(db, user, permissions.DocumentView, permissions.ObjectTypeDocument)
	if err != nil {
		return nil, 0, err
	}

	var count int64
	if err := scope.Apply(c.DocumentsQuery(db), "documents.id").
		Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting cabinet documents: %w", err)
	}

	docs := []models.Document{}
	if err := opts.apply(scope.Apply(c.DocumentsQuery(db), "documents.id")).
		Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("error listing cabinet documents: %w", err)
	}
	return docs, count, nil
}

// Document returns one document attached to a cabinet. It fails with
// ErrNotFound when the document is not attached or not visible.
func (s *CabinetService) Document(
	ctx context.Context, user *models.User, id, documentID uint,
) (*models.Document, error) {
	db := s.db.WithContext(ctx)

	c, err := s.get(db, user, permissions.CabinetView, id)
	if err != nil {
		return nil, err
	}

	attached, err := c.HasDocument(db, documentID)
	if err != nil {
		return nil, err
	}
	if !attached {
		return nil, permissions.ErrNotFound
	}

	if err := s.authorizer.Require(db, user, permissions.DocumentView,
		permissions.DocumentObject(documentID)); err != nil {
		return nil, err
	}

	var doc models.Document
	if err := doc.Get(db, documentID); err != nil {
		return nil, notFound(err)
	}
	return &doc, nil
}

// AddDocuments attaches documents to a cabinet after its current documents.
// Documents already attached keep their position.
func (s *CabinetService) AddDocuments(
	ctx context.Context, user *models.User, id uint, documentIDs []uint,
) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.get(tx, user, permissions.CabinetAddDocument, id)
		if err != nil {
			return err
		}

		if len(documentIDs) == 0 {
			return invalid("documents_pk_list", errors.New("cannot be blank"))
		}
		documentIDs = dedupe(documentIDs)
		if err := s.checkDocuments(tx, user, documentIDs); err != nil {
			return err
		}
		return c.AddDocuments(tx, documentIDs)
	})
}

// RemoveDocument detaches a document from a cabinet. The document itself is
// kept. It fails with ErrNotFound when the document is not attached.
func (s *CabinetService) RemoveDocument(
	ctx context.Context, user *models.User, id, documentID uint,
) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.get(tx, user, permissions.CabinetRemoveDocument, id)
		if err != nil {
			return err
		}

		removed, err := c.RemoveDocument(tx, documentID)
		if err != nil {
			return err
		}
		if !removed {
			return permissions.ErrNotFound
		}
		return nil
	})
}

// ForDocument returns the cabinets a visible document is attached to,
// limited to the cabinets the user can view.
func (s *CabinetService) ForDocument(
	ctx context.Context, user *models.User, documentID uint,
) ([]models.Cabinet, error) {
	db := s.db.WithContext(ctx)

	if documentID == 0 {
		return nil, permissions.ErrNotFound
	}
	if err := s.authorizer.Require(db, user, permissions.DocumentView,
		permissions.DocumentObject(documentID)); err != nil {
		return nil, err
	}
	var doc models.Document
	if err := doc.Get(db, documentID); err != nil {
		return nil, notFound(err)
	}

	scope, err := s.authorizer.Scope(db, user, permissions.CabinetView, permissions.ObjectTypeCabinet)
	if err != nil {
		return nil, err
	}
	if scope.Empty() {
		return []models.Cabinet{}, nil
	}

	cabinets, err := models.CabinetsForDocument(scope.Apply(db, "cabinets.id"), documentID)
	if err != nil {
		return nil, fmt.Errorf("error getting document cabinets: %w", err)
	}
	return cabinets, nil
}

// get checks perm on the cabinet before loading it, so a missing grant and a
// missing cabinet both result in ErrNotFound.
func (s *CabinetService) get(
	db *gorm.DB, user *models.User, perm permissions.Permission, id uint,
) (*models.Cabinet, error) {
	if id == 0 {
		return nil, permissions.ErrNotFound
	}
	if err := s.authorizer.Require(db, user, perm, permissions.CabinetObject(id)); err != nil {
		return nil, err
	}

	var c models.Cabinet
	if err := c.Get(db, id); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// checkDocuments fails with ErrInvalid unless every ID is a document the
// user can view.
func (s *CabinetService) checkDocuments(db *gorm.DB, user *models.User, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	scope, err := s.authorizer.Scope(db, user, permissions.DocumentView, permissions.ObjectTypeDocument)
	if err != nil {
		return err
	}

	var found []uint
	if err := scope.Apply(db.Model(&models.Document{}), "id").
		Where("id IN ?", ids).
		Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("error checking documents: %w", err)
	}
	if len(found) == len(ids) {
		return nil
	}

	ok := make(map[uint]bool, len(found))
	for _, id := range found {
		ok[id] = true
	}
	var missing []string
	for _, id := range ids {
		if !ok[id] {
			missing = append(missing, strconv.FormatUint(uint64(id), 10))
		}
	}
	return invalid("documents_pk_list",
		fmt.Errorf("unknown documents: %s", strings.Join(missing, ",")))
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return permissions.ErrNotFound
	}
	return err
}
