package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"
)

// User is an account that authenticates against the API with a bearer token.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Username is the unique login name.
	Username string `gorm:"type:varchar(150);not null;uniqueIndex" json:"username"`

	// EmailAddress is optional contact information.
	EmailAddress string `gorm:"type:varchar(254)" json:"emailAddress,omitempty"`

	// IsAdmin users bypass every permission check.
	IsAdmin bool `gorm:"not null;default:false" json:"isAdmin"`

	// Roles are the groups of permission grants this user belongs to.
	Roles []Role `gorm:"many2many:user_roles;" json:"-"`
}

// TableName specifies the table name.
func (User) TableName() string {
	return "users"
}

// Create creates a new user.
func (u *User) Create(db *gorm.DB) error {
	if err := validation.ValidateStruct(u,
		validation.Field(&u.Username, validation.Required, validation.Length(1, 150)),
	); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	return db.Omit("Roles").Create(u).Error
}

// Get retrieves a user by ID.
func (u *User) Get(db *gorm.DB, id uint) error {
	if err := validation.Validate(id, validation.Required); err != nil {
		return err
	}

	return db.First(u, id).Error
}

// GetByUsername retrieves a user by username.
func (u *User) GetByUsername(db *gorm.DB, username string) error {
	if err := validation.Validate(username, validation.Required); err != nil {
		return err
	}

	return db.Where("username = ?", username).First(u).Error
}

// RoleIDs returns the IDs of the roles the user is a member of.
func (u *User) RoleIDs(db *gorm.DB) ([]uint, error) {
	var ids []uint
	if err := db.
		Table("user_roles").
		Where("user_id = ?", u.ID).
		Pluck("role_id", &ids).
		Error; err != nil {
		return nil, fmt.Errorf("error getting roles for user: %w", err)
	}
	return ids, nil
}
