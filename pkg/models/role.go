package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"
)

// Role groups users so that permissions can be granted to all of them at once.
type Role struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Label string `gorm:"type:varchar(128);not null;uniqueIndex" json:"label"`

	Users []User `gorm:"many2many:user_roles;" json:"-"`
}

// TableName specifies the table name.
func (Role) TableName() string {
	return "roles"
}

// Create creates a new role.
func (r *Role) Create(db *gorm.DB) error {
	if err := validation.ValidateStruct(r,
		validation.Field(&r.Label, validation.Required, validation.Length(1, 128)),
	); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	return db.Omit("Users").Create(r).Error
}

// GetByLabel retrieves a role by label.
func (r *Role) GetByLabel(db *gorm.DB, label string) error {
	if err := validation.Validate(label, validation.Required); err != nil {
		return err
	}

	return db.Where("label = ?", label).First(r).Error
}

// AddUser makes the user a member of the role.
func (r *Role) AddUser(db *gorm.DB, u *User) error {
	if err := db.Model(r).Association("Users").Append(u); err != nil {
		return fmt.Errorf("error adding user to role: %w", err)
	}
	return nil
}
