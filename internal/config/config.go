// Package config loads the server configuration from an HCL file.
package config

import (
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/hashicorp-forge/archivist/pkg/database"
	"github.com/hashicorp-forge/archivist/pkg/parsing"
	"github.com/hashicorp-forge/archivist/pkg/search/adapters/bleve"
	"github.com/hashicorp-forge/archivist/pkg/storage"
)

// DatabasePasswordEnvVar overrides the database password from the config
// file.
const DatabasePasswordEnvVar = "ARCHIVIST_DATABASE_PASSWORD"

// Config contains the Archivist configuration.
type Config struct {
	// LogLevel is the level for the root logger (trace, debug, info, warn,
	// error).
	LogLevel string `hcl:"log_level,optional"`

	Server   *Server         `hcl:"server,block"`
	Database *Database       `hcl:"database,block"`
	Storage  *storage.Config `hcl:"storage,block"`
	Parser   *parsing.Config `hcl:"parser,block"`
	Search   *Search         `hcl:"search,block"`
}

// Server configures the HTTP server.
type Server struct {
	// Addr is the address to listen on.
	Addr string `hcl:"addr,optional"`

	// MaxUploadSizeMB limits the size of uploaded documents.
	MaxUploadSizeMB int64 `hcl:"max_upload_size_mb,optional"`
}

// Database configures the database connection.
type Database struct {
	// Driver is "postgres" or "sqlite".
	Driver string `hcl:"driver,optional"`

	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	User     string `hcl:"user,optional"`
	Password string `hcl:"password,optional"`
	DBName   string `hcl:"dbname,optional"`
	SSLMode  string `hcl:"sslmode,optional"`

	// Path is the SQLite database file.
	Path string `hcl:"path,optional"`

	// AutoMigrate applies pending schema migrations on startup.
	AutoMigrate bool `hcl:"auto_migrate,optional"`

	MaxOpenConns int `hcl:"max_open_conns,optional"`
	MaxIdleConns int `hcl:"max_idle_conns,optional"`
}

// Search configures the search backend.
type Search struct {
	// Provider is "bleve" or "database".
	Provider string `hcl:"provider,optional"`

	Bleve *bleve.Config `hcl:"bleve,block"`
}

// NewConfig loads the configuration file and applies defaults and
// environment overrides.
func NewConfig(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration file path is required")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	var cfg Config
	if err := hclsimple.DecodeFile(filename, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Server == nil {
		c.Server = &Server{}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8000"
	}
	if c.Server.MaxUploadSizeMB == 0 {
		c.Server.MaxUploadSizeMB = 64
	}

	// Without a database block the server runs on a local SQLite file that
	// it migrates itself.
	if c.Database == nil {
		c.Database = &Database{AutoMigrate: true}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = database.DriverSQLite
	}
	switch c.Database.Driver {
	case database.DriverSQLite:
		if c.Database.Path == "" {
			c.Database.Path = ".archivist/archivist.db"
		}
	case database.DriverPostgres:
		if c.Database.Host == "" {
			c.Database.Host = "localhost"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.DBName == "" {
			c.Database.DBName = "archivist"
		}
	}

	if c.Storage == nil {
		c.Storage = &storage.Config{}
	}
	if c.Storage.Path == "" {
		c.Storage.Path = ".archivist/files"
	}

	if c.Parser == nil {
		c.Parser = &parsing.Config{}
	}
	if c.Parser.Engine == "" {
		c.Parser.Engine = parsing.EngineNative
	}

	if c.Search == nil {
		c.Search = &Search{}
	}
	if c.Search.Provider == "" {
		c.Search.Provider = "bleve"
	}
	if c.Search.Provider == "bleve" {
		if c.Search.Bleve == nil {
			c.Search.Bleve = &bleve.Config{}
		}
		if c.Search.Bleve.IndexPath == "" {
			c.Search.Bleve.IndexPath = ".archivist/index"
		}
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(DatabasePasswordEnvVar); v != "" {
		c.Database.Password = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "error")),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(c.Database,
		validation.Field(&c.Database.Driver, validation.In(database.DriverPostgres, database.DriverSQLite)),
		validation.Field(&c.Database.Path, validation.When(c.Database.Driver == database.DriverSQLite, validation.Required)),
		validation.Field(&c.Database.User, validation.When(c.Database.Driver == database.DriverPostgres, validation.Required)),
	); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := validation.ValidateStruct(c.Parser,
		validation.Field(&c.Parser.Engine, validation.In(parsing.EngineNative, parsing.EnginePoppler)),
	); err != nil {
		return fmt.Errorf("parser: %w", err)
	}
	if err := validation.ValidateStruct(c.Search,
		validation.Field(&c.Search.Provider, validation.In("bleve", "database")),
	); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return nil
}

// DatabaseConfig returns the connection settings for pkg/database.
func (c *Config) DatabaseConfig() database.Config {
	return database.Config{
		Driver:       strings.ToLower(c.Database.Driver),
		Host:         c.Database.Host,
		Port:         c.Database.Port,
		User:         c.Database.User,
		Password:     c.Database.Password,
		DBName:       c.Database.DBName,
		SSLMode:      c.Database.SSLMode,
		Path:         c.Database.Path,
		MaxOpenConns: c.Database.MaxOpenConns,
		MaxIdleConns: c.Database.MaxIdleConns,
	}
}
