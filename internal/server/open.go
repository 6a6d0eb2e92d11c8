package server

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/archivist/internal/config"
	"github.com/hashicorp-forge/archivist/internal/db"
	"github.com/hashicorp-forge/archivist/pkg/parsing"
	"github.com/hashicorp-forge/archivist/pkg/search"
	"github.com/hashicorp-forge/archivist/pkg/search/adapters/bleve"
	"github.com/hashicorp-forge/archivist/pkg/search/adapters/database"
	"github.com/hashicorp-forge/archivist/pkg/storage"
)

// Open connects to the database, file store, extraction engine and search
// backend named in cfg and returns a Server wired around them. The returned
// close function releases the search backend and the database.
func Open(cfg *config.Config, logger hclog.Logger) (Server, func() error, error) {
	gormDB, err := db.NewDB(cfg, logger.Named("database"))
	if err != nil {
		return Server{}, nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return Server{}, nil, fmt.Errorf("error getting sql.DB: %w", err)
	}

	store, err := storage.NewOS(*cfg.Storage)
	if err != nil {
		sqlDB.Close()
		return Server{}, nil, fmt.Errorf("error initializing file storage: %w", err)
	}

	engine, err := parsing.NewEngine(*cfg.Parser)
	if err != nil {
		sqlDB.Close()
		return Server{}, nil, fmt.Errorf("error initializing parser: %w", err)
	}

	var provider search.Provider
	switch cfg.Search.Provider {
	case "database":
		provider = database.NewAdapter(gormDB)
	default:
		provider, err = bleve.NewAdapter(cfg.Search.Bleve)
		if err != nil {
			sqlDB.Close()
			return Server{}, nil, fmt.Errorf("error initializing search: %w", err)
		}
	}
	logger.Info("initialized backends",
		"database", cfg.Database.Driver,
		"parser", engine.Name(),
		"search", provider.Name(),
	)

	closeFn := func() error {
		var result *multierror.Error
		if err := provider.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("error closing search: %w", err))
		}
		if err := sqlDB.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("error closing database: %w", err))
		}
		return result.ErrorOrNil()
	}
	return New(cfg, gormDB, store, engine, provider, logger), closeFn, nil
}
