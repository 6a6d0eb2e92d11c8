package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewVersionBlock marks a document whose new versions are blocked, for
// example while it is checked out.
type NewVersionBlock struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;uniqueIndex" json:"documentId"`
	Document   *Document `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName specifies the table name.
func (NewVersionBlock) TableName() string {
	return "new_version_blocks"
}

// BlockNewVersions blocks new versions of the document. Blocking an already
// blocked document is a no-op.
func BlockNewVersions(db *gorm.DB, documentID uint) error {
	block := &NewVersionBlock{DocumentID: documentID}
	if err := db.
		Omit("Document").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}},
			DoNothing: true,
		}).
		Create(block).
		Error; err != nil {
		return fmt.Errorf("error blocking new versions: %w", err)
	}
	return nil
}

// UnblockNewVersions removes the block on new versions of the document.
func UnblockNewVersions(db *gorm.DB, documentID uint) error {
	if err := db.
		Where("document_id = ?", documentID).
		Delete(&NewVersionBlock{}).
		Error; err != nil {
		return fmt.Errorf("error unblocking new versions: %w", err)
	}
	return nil
}

// IsNewVersionBlocked reports whether new versions of the document are
// blocked.
func IsNewVersionBlocked(db *gorm.DB, documentID uint) (bool, error) {
	var count int64
	if err := db.Model(&NewVersionBlock{}).
		Where("document_id = ?", documentID).
		Count(&count).
		Error; err != nil {
		return false, fmt.Errorf("error checking new version block: %w", err)
	}
	return count > 0, nil
}
