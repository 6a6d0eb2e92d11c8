package models

// ModelsToAutoMigrate returns the models in dependency order.
func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&User{},
		&Role{},
		&APIToken{},
		&AccessGrant{},
		&Document{},
		&DocumentVersion{},
		&DocumentPage{},
		&DocumentPageContent{},
		&NewVersionBlock{},
		&Cabinet{},
		&CabinetDocument{},
	}
}
