package version

import (
	"github.com/hashicorp-forge/archivist/internal/cmd/base"
	"github.com/hashicorp-forge/archivist/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version of Archivist"
}

func (c *Command) Help() string {
	return `Usage: archivist version

  This command prints the version of Archivist.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.Version)
	return 0
}
