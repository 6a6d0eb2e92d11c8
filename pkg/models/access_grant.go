package models

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"
)

// AccessGrant ties a subject (a user or a role) to a permission, optionally
// scoped to one object. A grant without an object applies to every object of
// every type.
type AccessGrant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	Permission string `gorm:"type:varchar(128);not null;index" json:"permission"`

	UserID *uint `gorm:"index" json:"userId,omitempty"`
	RoleID *uint `gorm:"index" json:"roleId,omitempty"`

	// ObjectType and ObjectID scope the grant to a single object. Both are
	// empty for global grants.
	ObjectType string `gorm:"type:varchar(64);not null;default:'';index:idx_access_grants_object" json:"objectType,omitempty"`
	ObjectID   *uint  `gorm:"index:idx_access_grants_object" json:"objectId,omitempty"`
}

// TableName specifies the table name.
func (AccessGrant) TableName() string {
	return "access_grants"
}

// IsGlobal reports whether the grant applies to all objects.
func (g *AccessGrant) IsGlobal() bool {
	return g.ObjectType == "" && g.ObjectID == nil
}

// Validate validates the grant.
func (g *AccessGrant) Validate() error {
	if err := validation.ValidateStruct(g,
		validation.Field(&g.Permission, validation.Required),
	); err != nil {
		return err
	}

	if (g.UserID == nil) == (g.RoleID == nil) {
		return errors.New("exactly one of user or role is required")
	}
	if (g.ObjectType == "") != (g.ObjectID == nil) {
		return errors.New("object type and object ID must be set together")
	}
	return nil
}

// Create creates the grant. Creating a grant identical to an existing one
// returns the existing grant.
func (g *AccessGrant) Create(db *gorm.DB) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	q := db.Where("permission = ? AND object_type = ?", g.Permission, g.ObjectType)
	if g.UserID != nil {
		q = q.Where("user_id = ?", *g.UserID)
	} else {
		q = q.Where("role_id = ?", *g.RoleID)
	}
	if g.ObjectID != nil {
		q = q.Where("object_id = ?", *g.ObjectID)
	} else {
		q = q.Where("object_id IS NULL")
	}

	var existing AccessGrant
	err := q.First(&existing).Error
	if err == nil {
		*g = existing
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("error checking for existing grant: %w", err)
	}

	return db.Create(g).Error
}

// Get retrieves a grant by ID.
func (g *AccessGrant) Get(db *gorm.DB, id uint) error {
	return db.First(g, id).Error
}

// Delete deletes the grant.
func (g *AccessGrant) Delete(db *gorm.DB) error {
	return db.Delete(g).Error
}

// DeleteObjectGrants removes every grant scoped to the object.
func DeleteObjectGrants(db *gorm.DB, objectType string, objectID uint) error {
	return db.
		Where("object_type = ? AND object_id = ?", objectType, objectID).
		Delete(&AccessGrant{}).
		Error
}
