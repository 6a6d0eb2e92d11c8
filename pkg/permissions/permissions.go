// Package permissions implements the access control checks that gate every
// API operation.
//
// Grants come in two flavours. Global grants (no object) apply to every
// object and are the only way to authorize object-less actions such as
// creating a cabinet. Object grants apply to a single object. A denied
// object-less action is reported as forbidden; a denied object action is
// reported as not found so a missing grant looks like a missing object.
package permissions

import "sort"

// Permission is the name of an action that can be granted.
type Permission string

// Object types that grants can be scoped to.
const (
	ObjectTypeCabinet  = "cabinet"
	ObjectTypeDocument = "document"
)

// Cabinet permissions.
const (
	CabinetCreate         Permission = "cabinets.cabinet_create"
	CabinetDelete         Permission = "cabinets.cabinet_delete"
	CabinetEdit           Permission = "cabinets.cabinet_edit"
	CabinetView           Permission = "cabinets.cabinet_view"
	CabinetAddDocument    Permission = "cabinets.cabinet_add_document"
	CabinetRemoveDocument Permission = "cabinets.cabinet_remove_document"
)

// Document permissions.
const (
	DocumentCreate     Permission = "documents.document_create"
	DocumentView       Permission = "documents.document_view"
	DocumentNewVersion Permission = "documents.document_new_version"
	DocumentDelete     Permission = "documents.document_delete"
)

var registry = map[Permission]string{
	CabinetCreate:         "Create cabinets",
	CabinetDelete:         "Delete cabinets",
	CabinetEdit:           "Edit cabinets",
	CabinetView:           "View cabinets",
	CabinetAddDocument:    "Add documents to cabinets",
	CabinetRemoveDocument: "Remove documents from cabinets",
	DocumentCreate:        "Create documents",
	DocumentView:          "View documents",
	DocumentNewVersion:    "Create new document versions",
	DocumentDelete:        "Delete documents",
}

// Label returns the human readable label of the permission.
func (p Permission) Label() string {
	return registry[p]
}

// Valid reports whether p is a known permission.
func (p Permission) Valid() bool {
	_, ok := registry[p]
	return ok
}

// All returns every known permission, sorted by name.
func All() []Permission {
	perms := make([]Permission, 0, len(registry))
	for p := range registry {
		perms = append(perms, p)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}
