package permissions

import "errors"

var (
	// ErrForbidden is returned when an object-less action is not granted.
	ErrForbidden = errors.New("permission denied")

	// ErrNotFound is returned when an object does not exist or the caller has
	// no grant on it. The two cases are indistinguishable.
	ErrNotFound = errors.New("not found")
)

// Decision is the outcome of a permission check.
type Decision int

const (
	// Allowed means the action may proceed.
	Allowed Decision = iota

	// DeniedGlobal means an object-less action was not granted (403).
	DeniedGlobal

	// DeniedNotFound means an object action was not granted. It is reported
	// exactly like a missing object (404).
	DeniedNotFound
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case DeniedGlobal:
		return "denied"
	case DeniedNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Err converts the decision to an error, nil when allowed.
func (d Decision) Err() error {
	switch d {
	case Allowed:
		return nil
	case DeniedGlobal:
		return ErrForbidden
	default:
		return ErrNotFound
	}
}
