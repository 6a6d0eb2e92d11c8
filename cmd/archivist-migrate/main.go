package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	// PostgreSQL driver. The SQLite driver is registered by the migrate
	// package through modernc.org/sqlite.
	_ "github.com/lib/pq"

	"github.com/hashicorp-forge/archivist/internal/migrate"
)

func main() {
	driver := flag.String("driver", "postgres", "Database driver (postgres|sqlite)")
	dsn := flag.String("dsn", "", "Database connection string")
	rollback := flag.Int("rollback", 0, "Number of migrations to revert instead of migrating up")
	showVersion := flag.Bool("version", false, "Print the current schema version and exit")
	help := flag.Bool("help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Archivist Database Migration Tool\n\n")
		fmt.Fprintf(os.Stderr, "Applies the Archivist schema migrations to a PostgreSQL or SQLite database.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n\n")
		fmt.Fprintf(os.Stderr, "  PostgreSQL:\n")
		fmt.Fprintf(os.Stderr, "    %s -driver=postgres -dsn=\"host=localhost user=postgres password=postgres dbname=archivist port=5432 sslmode=disable\"\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  SQLite:\n")
		fmt.Fprintf(os.Stderr, "    %s -driver=sqlite -dsn=\".archivist/archivist.db\"\n\n", os.Args[0])
	}
	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name: "archivist-migrate",
	})

	if *dsn == "" {
		log.Error("-dsn flag is required; run with -help for usage information")
		os.Exit(1)
	}
	if *driver != "postgres" && *driver != "sqlite" {
		log.Error("unsupported driver (must be postgres or sqlite)", "driver", *driver)
		os.Exit(1)
	}

	log.Info("connecting to database", "driver", *driver)
	sqlDB, err := sql.Open(*driver, *dsn)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	switch {
	case *showVersion:
	case *rollback > 0:
		log.Info("reverting migrations", "steps", *rollback)
		if err := migrate.RollbackMigrations(sqlDB, *driver, *rollback); err != nil {
			log.Error("rollback failed", "error", err)
			os.Exit(1)
		}
	default:
		log.Info("running migrations")
		if err := migrate.RunMigrations(sqlDB, *driver); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
	}

	version, dirty, err := migrate.GetMigrationVersion(sqlDB, *driver)
	if err != nil {
		log.Error("failed to read schema version", "error", err)
		os.Exit(1)
	}
	log.Info("schema version", "version", version, "dirty", dirty)
}
