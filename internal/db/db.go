// Package db opens the server database from the loaded configuration.
package db

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/archivist/internal/config"
	"github.com/hashicorp-forge/archivist/internal/migrate"
	"github.com/hashicorp-forge/archivist/pkg/database"
)

// NewDB returns a database connection for cfg. When the database block sets
// auto_migrate, pending schema migrations are applied before returning.
func NewDB(cfg *config.Config, log hclog.Logger) (*gorm.DB, error) {
	dbCfg := cfg.DatabaseConfig()

	db, err := database.Connect(dbCfg, log)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("error getting sql.DB: %w", err)
		}
		if err := migrate.RunMigrations(sqlDB, dbCfg.Driver); err != nil {
			return nil, fmt.Errorf("error migrating database: %w", err)
		}
		if log != nil {
			version, _, err := migrate.GetMigrationVersion(sqlDB, dbCfg.Driver)
			if err == nil {
				log.Info("database schema is up to date", "version", version)
			}
		}
	}

	return db, nil
}
