// Package server holds the dependencies shared by the API handlers.
package server

import (
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/archivist/internal/config"
	"github.com/hashicorp-forge/archivist/internal/services"
	"github.com/hashicorp-forge/archivist/pkg/parsing"
	"github.com/hashicorp-forge/archivist/pkg/permissions"
	"github.com/hashicorp-forge/archivist/pkg/search"
	"github.com/hashicorp-forge/archivist/pkg/storage"
)

// Server contains the server configuration.
type Server struct {
	// Config is the config for the server.
	Config *config.Config

	// DB is the database for the server.
	DB *gorm.DB

	// Logger is the logger for the server.
	Logger hclog.Logger

	// Authorizer evaluates access grants.
	Authorizer *permissions.Authorizer

	// SearchProvider is the search backend (Bleve or the database).
	SearchProvider search.Provider

	// Search answers permission filtered search queries.
	Search *search.Service

	// Indexer keeps the search backend in sync with the database.
	Indexer *search.Indexer

	// Processor extracts page text and indexes documents after uploads.
	Processor *services.DocumentProcessor

	// Cabinets implements the cabinet operations.
	Cabinets *services.CabinetService

	// Documents implements the document operations.
	Documents *services.DocumentService
}

// New wires the services of a Server around its storage, extraction engine
// and search backend.
func New(
	cfg *config.Config,
	db *gorm.DB,
	store *storage.Store,
	engine parsing.Engine,
	provider search.Provider,
	logger hclog.Logger,
) Server {
	authorizer := permissions.NewAuthorizer(logger)
	parser := parsing.NewParser(db, store, engine, logger)
	indexer := search.NewIndexer(db, provider, search.WithLogger(logger))
	processor := services.NewDocumentProcessor(parser, indexer, logger)

	return Server{
		Config:         cfg,
		DB:             db,
		Logger:         logger,
		Authorizer:     authorizer,
		SearchProvider: provider,
		Search:         search.NewService(db, provider, authorizer, logger),
		Indexer:        indexer,
		Processor:      processor,
		Cabinets:       services.NewCabinetService(db, authorizer, logger),
		Documents: services.NewDocumentService(
			db, store, engine, processor, authorizer, logger),
	}
}
