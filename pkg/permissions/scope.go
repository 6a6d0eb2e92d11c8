package permissions

import "gorm.io/gorm"

// Scope is the set of objects a user may act on. All means every object.
type Scope struct {
	All bool
	IDs []uint
}

// Empty reports whether the scope contains no objects.
func (s Scope) Empty() bool {
	return !s.All && len(s.IDs) == 0
}

// Contains reports whether id is in the scope.
func (s Scope) Contains(id uint) bool {
	if s.All {
		return true
	}
	for _, v := range s.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// Apply restricts q to rows whose column is in the scope.
func (s Scope) Apply(q *gorm.DB, column string) *gorm.DB {
	if s.All {
		return q
	}
	if len(s.IDs) == 0 {
		return q.Where("1 = 0")
	}
	return q.Where(column+" IN ?", s.IDs)
}
