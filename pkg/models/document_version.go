package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrNewVersionBlocked is returned when creating a version for a document
// that has a new version block.
var ErrNewVersionBlocked = errors.New("new versions of this document are blocked")

// DocumentVersion is an immutable snapshot of a document's file.
type DocumentVersion struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index" json:"documentId"`
	CreatedAt  time.Time `gorm:"not null;index" json:"createdAt"`
	Comment    string    `gorm:"type:text" json:"comment"`

	// FileKey is the storage key of the version's file.
	FileKey  string `gorm:"type:varchar(255);not null" json:"-"`
	MimeType string `gorm:"type:varchar(255)" json:"mimeType"`
	Checksum string `gorm:"type:varchar(64);index" json:"checksum"`
	Size     int64  `json:"size"`

	Pages []DocumentPage `json:"-"`
}

// TableName specifies the table name.
func (DocumentVersion) TableName() string {
	return "document_versions"
}

// NewDocumentVersion creates a version of the document with pageCount pages.
// It fails with ErrNewVersionBlocked while the document has a new version
// block.
func NewDocumentVersion(db *gorm.DB, v *DocumentVersion, pageCount int) error {
	if v.DocumentID == 0 {
		return fmt.Errorf("document ID is required")
	}
	if v.FileKey == "" {
		return fmt.Errorf("file key is required")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		blocked, err := IsNewVersionBlocked(tx, v.DocumentID)
		if err != nil {
			return err
		}
		if blocked {
			return ErrNewVersionBlocked
		}

		if err := tx.Omit("Pages").Create(v).Error; err != nil {
			return fmt.Errorf("error creating document version: %w", err)
		}

		if pageCount <= 0 {
			return nil
		}

		pages := make([]DocumentPage, 0, pageCount)
		for n := 1; n <= pageCount; n++ {
			pages = append(pages, DocumentPage{
				DocumentVersionID: v.ID,
				PageNumber:        n,
			})
		}
		if err := tx.Omit("Content").Create(&pages).Error; err != nil {
			return fmt.Errorf("error creating document pages: %w", err)
		}
		v.Pages = pages

		return nil
	})
}

// Get retrieves a version by ID.
func (v *DocumentVersion) Get(db *gorm.DB, id uint) error {
	return db.First(v, id).Error
}

// OrderedPages returns the version's pages in page order with their content.
func (v *DocumentVersion) OrderedPages(db *gorm.DB) ([]DocumentPage, error) {
	var pages []DocumentPage
	if err := db.
		Preload("Content").
		Where("document_version_id = ?", v.ID).
		Order("page_number ASC").
		Find(&pages).
		Error; err != nil {
		return nil, fmt.Errorf("error getting pages: %w", err)
	}
	return pages, nil
}
