package operator

import (
	"fmt"

	"github.com/mitchellh/cli"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/archivist/internal/cmd/base"
	"github.com/hashicorp-forge/archivist/internal/db"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Perform operator-specific tasks"
}

func (c *Command) Help() string {
	return `Usage: archivist operator <subcommand> [options] [args]

  This command groups subcommands for operators managing users, permissions
  and documents of an Archivist installation.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

// openDB loads the config file and connects to its database. The returned
// function closes the connection.
func openDB(c *base.Command, configPath string) (*gorm.DB, func(), error) {
	cfg, err := c.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	gormDB, err := db.NewDB(cfg, c.Log.Named("database"))
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing database: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("error getting sql.DB: %w", err)
	}
	return gormDB, func() { sqlDB.Close() }, nil
}
