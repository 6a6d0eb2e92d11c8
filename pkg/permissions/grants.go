package permissions

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/hashicorp-forge/archivist/pkg/models"
)

// Subject is the holder of a grant: a user or a role.
type Subject struct {
	UserID *uint
	RoleID *uint
}

// UserSubject returns the subject for a user.
func UserSubject(u *models.User) Subject {
	id := u.ID
	return Subject{UserID: &id}
}

// RoleSubject returns the subject for a role.
func RoleSubject(r *models.Role) Subject {
	id := r.ID
	return Subject{RoleID: &id}
}

// Grant grants perm to the subject, on obj when it is not nil and globally
// otherwise.
func Grant(db *gorm.DB, s Subject, perm Permission, obj *Object) (*models.AccessGrant, error) {
	if !perm.Valid() {
		return nil, fmt.Errorf("unknown permission %q", perm)
	}

	g := &models.AccessGrant{
		Permission: string(perm),
		UserID:     s.UserID,
		RoleID:     s.RoleID,
	}
	if obj != nil {
		id := obj.ID
		g.ObjectType = obj.Type
		g.ObjectID = &id
	}

	if err := g.Create(db); err != nil {
		return nil, fmt.Errorf("error creating grant: %w", err)
	}
	return g, nil
}

// Revoke removes the subject's grant of perm on obj (or the global grant when
// obj is nil).
func Revoke(db *gorm.DB, s Subject, perm Permission, obj *Object) error {
	q := db.Where("permission = ?", string(perm))
	if s.UserID != nil {
		q = q.Where("user_id = ?", *s.UserID)
	} else if s.RoleID != nil {
		q = q.Where("role_id = ?", *s.RoleID)
	} else {
		return fmt.Errorf("subject is empty")
	}

	if obj != nil {
		q = q.Where("object_type = ? AND object_id = ?", obj.Type, obj.ID)
	} else {
		q = q.Where("object_type = '' AND object_id IS NULL")
	}

	return q.Delete(&models.AccessGrant{}).Error
}
