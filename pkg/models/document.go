package models

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document is a logical document. Its content lives in versions, each
// composed of ordered pages.
type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// UUID is the stable public identifier of the document.
	UUID uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex" json:"uuid"`

	Label       string `gorm:"type:varchar(255);not null;index" json:"label"`
	Description string `gorm:"type:text" json:"description"`
	Language    string `gorm:"type:varchar(8);not null;default:'eng'" json:"language"`

	Versions []DocumentVersion `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

// TableName specifies the table name.
func (Document) TableName() string {
	return "documents"
}

// BeforeCreate generates the document UUID if not set.
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.UUID == uuid.Nil {
		d.UUID = uuid.New()
	}
	if d.Language == "" {
		d.Language = "eng"
	}
	return nil
}

// Validate validates the document fields.
func (d *Document) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Label, validation.Required, validation.Length(1, 255)),
		validation.Field(&d.Language, validation.Length(0, 8)),
	)
}

// Create creates a new document.
func (d *Document) Create(db *gorm.DB) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	return db.Omit("Versions").Create(d).Error
}

// Get retrieves a document by ID.
func (d *Document) Get(db *gorm.DB, id uint) error {
	if err := validation.Validate(id, validation.Required); err != nil {
		return err
	}

	return db.First(d, id).Error
}

// LatestVersion returns the most recent version of the document.
func (d *Document) LatestVersion(db *gorm.DB) (*DocumentVersion, error) {
	var v DocumentVersion
	if err := db.
		Where("document_id = ?", d.ID).
		Order("created_at DESC").
		Order("id DESC").
		First(&v).
		Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// Pages returns the pages of the latest version in page order, with their
// extracted content. A document without versions has no pages.
func (d *Document) Pages(db *gorm.DB) ([]DocumentPage, error) {
	v, err := d.LatestVersion(db)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []DocumentPage{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting latest version: %w", err)
	}
	return v.OrderedPages(db)
}

// Delete deletes the document. Versions, pages, cabinet memberships and new
// version blocks go with it.
func (d *Document) Delete(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var versionIDs []uint
		if err := tx.Model(&DocumentVersion{}).
			Where("document_id = ?", d.ID).
			Pluck("id", &versionIDs).Error; err != nil {
			return err
		}

		if len(versionIDs) > 0 {
			pageIDs := tx.Model(&DocumentPage{}).
				Select("id").
				Where("document_version_id IN ?", versionIDs)
			if err := tx.Where("document_page_id IN (?)", pageIDs).
				Delete(&DocumentPageContent{}).Error; err != nil {
				return err
			}
			if err := tx.Where("document_version_id IN ?", versionIDs).
				Delete(&DocumentPage{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", versionIDs).
				Delete(&DocumentVersion{}).Error; err != nil {
				return err
			}
		}

		for _, m := range []any{&CabinetDocument{}, &NewVersionBlock{}} {
			if err := tx.Where("document_id = ?", d.ID).Delete(m).Error; err != nil {
				return err
			}
		}

		return tx.Delete(d).Error
	})
}

// Documents is a slice of documents.
type Documents []Document

// FindByIDs retrieves the documents with the given IDs, in the order of ids.
// Unknown IDs are skipped.
func (ds *Documents) FindByIDs(db *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		*ds = Documents{}
		return nil
	}

	var found []Document
	if err := db.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return err
	}

	byID := make(map[uint]Document, len(found))
	for _, d := range found {
		byID[d.ID] = d
	}

	result := make(Documents, 0, len(found))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			result = append(result, d)
		}
	}
	*ds = result
	return nil
}
