package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentPage is one page of a document version.
type DocumentPage struct {
	ID                uint `gorm:"primaryKey" json:"id"`
	DocumentVersionID uint `gorm:"not null;uniqueIndex:idx_document_pages_version_number" json:"documentVersionId"`
	PageNumber        int  `gorm:"not null;uniqueIndex:idx_document_pages_version_number" json:"pageNumber"`

	Content *DocumentPageContent `gorm:"foreignKey:DocumentPageID" json:"-"`
}

// TableName specifies the table name.
func (DocumentPage) TableName() string {
	return "document_pages"
}

// DocumentPageContent stores the text extracted from a page.
type DocumentPageContent struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	DocumentPageID uint      `gorm:"not null;uniqueIndex" json:"documentPageId"`
	Content        string    `gorm:"type:text" json:"content"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName specifies the table name.
func (DocumentPageContent) TableName() string {
	return "document_page_contents"
}

// Text returns the extracted text of the page, or "" if none was stored.
func (p *DocumentPage) Text() string {
	if p.Content == nil {
		return ""
	}
	return p.Content.Content
}

// SetContent stores the extracted text of the page, replacing any previous
// content.
func (p *DocumentPage) SetContent(db *gorm.DB, text string) error {
	content := &DocumentPageContent{
		DocumentPageID: p.ID,
		Content:        text,
		UpdatedAt:      time.Now(),
	}

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "document_page_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(content).Error; err != nil {
		return fmt.Errorf("error saving page content: %w", err)
	}

	p.Content = content
	return nil
}

// DocumentID returns the ID of the document the page belongs to.
func (p *DocumentPage) DocumentID(db *gorm.DB) (uint, error) {
	var v DocumentVersion
	if err := db.Select("document_id").First(&v, p.DocumentVersionID).Error; err != nil {
		return 0, err
	}
	return v.DocumentID, nil
}
