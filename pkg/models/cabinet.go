package models

import (
	"database/sql"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cabinet is a labeled container of documents. Cabinets reference documents
// without owning them.
type Cabinet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Label string `gorm:"type:varchar(128);not null;index" json:"label"`
}

// TableName specifies the table name.
func (Cabinet) TableName() string {
	return "cabinets"
}

// CabinetDocument is the membership of a document in a cabinet. Position
// keeps documents in the order they were attached.
type CabinetDocument struct {
	CabinetID  uint      `gorm:"primaryKey;autoIncrement:false" json:"cabinetId"`
	DocumentID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"documentId"`
	Position   int       `gorm:"not null;default:0" json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName specifies the table name.
func (CabinetDocument) TableName() string {
	return "cabinet_documents"
}

// ValidateLabel validates a cabinet label.
func ValidateLabel(label string) error {
	return validation.Validate(label,
		validation.Required,
		validation.Length(1, 128),
	)
}

// Create creates a new cabinet.
func (c *Cabinet) Create(db *gorm.DB) error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Label, validation.Required, validation.Length(1, 128)),
	); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	return db.Create(c).Error
}

// Get retrieves a cabinet by ID.
func (c *Cabinet) Get(db *gorm.DB, id uint) error {
	if err := validation.Validate(id, validation.Required); err != nil {
		return err
	}

	return db.First(c, id).Error
}

// SetLabel updates the label of the cabinet.
func (c *Cabinet) SetLabel(db *gorm.DB, label string) error {
	if err := ValidateLabel(label); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if err := db.Model(c).Update("label", label).Error; err != nil {
		return fmt.Errorf("error updating cabinet label: %w", err)
	}
	c.Label = label
	return nil
}

// Delete deletes the cabinet and its document memberships. The documents
// themselves are not affected.
func (c *Cabinet) Delete(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("cabinet_id = ?", c.ID).
			Delete(&CabinetDocument{}).
			Error; err != nil {
			return fmt.Errorf("error removing cabinet documents: %w", err)
		}

		res := tx.Delete(c)
		if res.Error != nil {
			return fmt.Errorf("error deleting cabinet: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// AddDocuments attaches documents to the cabinet after its current documents,
// in the given order. Documents already in the cabinet keep their position.
func (c *Cabinet) AddDocuments(db *gorm.DB, documentIDs []uint) error {
	if len(documentIDs) == 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var maxPosition sql.NullInt64
		if err := tx.Model(&CabinetDocument{}).
			Where("cabinet_id = ?", c.ID).
			Select("MAX(position)").
			Row().
			Scan(&maxPosition); err != nil {
			return fmt.Errorf("error getting cabinet document position: %w", err)
		}

		next := 0
		if maxPosition.Valid {
			next = int(maxPosition.Int64) + 1
		}

		rows := make([]CabinetDocument, 0, len(documentIDs))
		seen := make(map[uint]struct{}, len(documentIDs))
		for _, id := range documentIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}

			rows = append(rows, CabinetDocument{
				CabinetID:  c.ID,
				DocumentID: id,
				Position:   next,
			})
			next++
		}

		if err := tx.
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&rows).
			Error; err != nil {
			return fmt.Errorf("error adding documents to cabinet: %w", err)
		}
		return nil
	})
}

// RemoveDocument detaches a document from the cabinet. It reports whether
// the document was attached.
func (c *Cabinet) RemoveDocument(db *gorm.DB, documentID uint) (bool, error) {
	res := db.
		Where("cabinet_id = ? AND document_id = ?", c.ID, documentID).
		Delete(&CabinetDocument{})
	if res.Error != nil {
		return false, fmt.Errorf("error removing document from cabinet: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// HasDocument reports whether the document is attached to the cabinet.
func (c *Cabinet) HasDocument(db *gorm.DB, documentID uint) (bool, error) {
	var count int64
	if err := db.Model(&CabinetDocument{}).
		Where("cabinet_id = ? AND document_id = ?", c.ID, documentID).
		Count(&count).
		Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DocumentsQuery returns a query over the cabinet's documents in attachment
// order.
func (c *Cabinet) DocumentsQuery(db *gorm.DB) *gorm.DB {
	return db.Model(&Document{}).
		Joins("JOIN cabinet_documents ON cabinet_documents.document_id = documents.id").
		Where("cabinet_documents.cabinet_id = ?", c.ID).
		Order("cabinet_documents.position ASC").
		Order("documents.id ASC")
}

// Documents returns the cabinet's documents in attachment order.
func (c *Cabinet) Documents(db *gorm.DB) ([]Document, error) {
	var docs []Document
	if err := c.DocumentsQuery(db).Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("error getting cabinet documents: %w", err)
	}
	return docs, nil
}

// CabinetsForDocument returns the cabinets a document is attached to.
func CabinetsForDocument(db *gorm.DB, documentID uint) ([]Cabinet, error) {
	var cabinets []Cabinet
	err := db.
		Joins("JOIN cabinet_documents ON cabinet_documents.cabinet_id = cabinets.id").
		Where("cabinet_documents.document_id = ?", documentID).
		Order("cabinets.label ASC").
		Find(&cabinets).
		Error
	return cabinets, err
}
