package permissions

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/archivist/pkg/models"
)

// Object identifies the target of an object-scoped permission check.
type Object struct {
	Type string
	ID   uint
}

// CabinetObject returns the object for a cabinet.
func CabinetObject(id uint) Object {
	return Object{Type: ObjectTypeCabinet, ID: id}
}

// DocumentObject returns the object for a document.
func DocumentObject(id uint) Object {
	return Object{Type: ObjectTypeDocument, ID: id}
}

// Authorizer evaluates access grants. All methods take the database handle
// to run on so that checks can share a transaction with the mutation they
// guard.
type Authorizer struct {
	logger hclog.Logger
}

// NewAuthorizer returns a new Authorizer.
func NewAuthorizer(logger hclog.Logger) *Authorizer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Authorizer{logger: logger.Named("permissions")}
}

// CheckGlobal checks an object-less action such as creating a cabinet. Only
// global grants are considered.
func (a *Authorizer) CheckGlobal(
	db *gorm.DB, user *models.User, perm Permission,
) (Decision, error) {
	if user == nil {
		return DeniedGlobal, nil
	}
	if user.IsAdmin {
		return Allowed, nil
	}

	q, err := a.grantsQuery(db, user, perm)
	if err != nil {
		return DeniedGlobal, err
	}

	ok, err := exists(q.Where("object_type = '' AND object_id IS NULL"))
	if err != nil {
		return DeniedGlobal, fmt.Errorf("error checking global grant: %w", err)
	}
	if !ok {
		a.logger.Debug("global permission denied",
			"user", user.Username,
			"permission", perm,
		)
		return DeniedGlobal, nil
	}
	return Allowed, nil
}

// CheckObject checks an action on a single object. Missing grants result in
// DeniedNotFound.
func (a *Authorizer) CheckObject(
	db *gorm.DB, user *models.User, perm Permission, obj Object,
) (Decision, error) {
	if user == nil {
		return DeniedNotFound, nil
	}
	if user.IsAdmin {
		return Allowed, nil
	}

	q, err := a.grantsQuery(db, user, perm)
	if err != nil {
		return DeniedNotFound, err
	}

	ok, err := exists(q.Where(
		"((object_type = '' AND object_id IS NULL) OR (object_type = ? AND object_id = ?))",
		obj.Type, obj.ID,
	))
	if err != nil {
		return DeniedNotFound, fmt.Errorf("error checking object grant: %w", err)
	}
	if !ok {
		a.logger.Debug("object permission denied",
			"user", user.Username,
			"permission", perm,
			"object_type", obj.Type,
			"object_id", obj.ID,
		)
		return DeniedNotFound, nil
	}
	return Allowed, nil
}

// Require is CheckObject followed by Decision.Err.
func (a *Authorizer) Require(
	db *gorm.DB, user *models.User, perm Permission, obj Object,
) error {
	d, err := a.CheckObject(db, user, perm, obj)
	if err != nil {
		return err
	}
	return d.Err()
}

// Scope returns the set of objects of objectType the user holds perm on.
func (a *Authorizer) Scope(
	db *gorm.DB, user *models.User, perm Permission, objectType string,
) (Scope, error) {
	if user == nil {
		return Scope{}, nil
	}
	if user.IsAdmin {
		return Scope{All: true}, nil
	}

	q, err := a.grantsQuery(db, user, perm)
	if err != nil {
		return Scope{}, err
	}

	var grants []models.AccessGrant
	if err := q.
		Where("((object_type = '' AND object_id IS NULL) OR object_type = ?)", objectType).
		Find(&grants).
		Error; err != nil {
		return Scope{}, fmt.Errorf("error listing grants: %w", err)
	}

	s := Scope{IDs: []uint{}}
	seen := make(map[uint]struct{})
	for _, g := range grants {
		if g.IsGlobal() {
			return Scope{All: true}, nil
		}
		if _, ok := seen[*g.ObjectID]; ok {
			continue
		}
		seen[*g.ObjectID] = struct{}{}
		s.IDs = append(s.IDs, *g.ObjectID)
	}
	return s, nil
}

// grantsQuery returns a query over the grants of perm held by the user,
// directly or through one of their roles.
func (a *Authorizer) grantsQuery(
	db *gorm.DB, user *models.User, perm Permission,
) (*gorm.DB, error) {
	roleIDs, err := user.RoleIDs(db)
	if err != nil {
		return nil, err
	}

	q := db.Model(&models.AccessGrant{}).Where("permission = ?", string(perm))
	if len(roleIDs) > 0 {
		q = q.Where("(user_id = ? OR role_id IN ?)", user.ID, roleIDs)
	} else {
		q = q.Where("user_id = ?", user.ID)
	}
	return q, nil
}

func exists(q *gorm.DB) (bool, error) {
	var g models.AccessGrant
	err := q.Select("id").Take(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}
