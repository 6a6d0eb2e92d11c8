package operator

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/archivist/internal/cmd/base"
	"github.com/hashicorp-forge/archivist/pkg/models"
)

type NewVersionBlockCommand struct {
	*base.Command

	flagConfig  string
	flagUnblock bool
}

func (c *NewVersionBlockCommand) Synopsis() string {
	return "Block or unblock new versions of a document"
}

func (c *NewVersionBlockCommand) Help() string {
	return `Usage: archivist operator new-version-block [options] <document id>

  This command blocks uploads of new versions of a document. Uploads fail
  with 409 Conflict until the block is removed with -unblock.` +
		c.Flags().Help()
}

func (c *NewVersionBlockCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("new-version-block", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to Archivist config file",
	)
	f.BoolVar(
		&c.flagUnblock, "unblock", false, "Remove the block instead of creating it",
	)

	return f
}

func (c *NewVersionBlockCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	id, err := documentIDArg(f)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	database, closeDB, err := openDB(c.Command, c.flagConfig)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	defer closeDB()

	var doc models.Document
	if err := doc.Get(database, id); err != nil {
		c.UI.Error(fmt.Sprintf("error getting document %d: %v", id, err))
		return 1
	}

	if c.flagUnblock {
		if err := models.UnblockNewVersions(database, doc.ID); err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		c.UI.Output(fmt.Sprintf("New versions of document %d are allowed", doc.ID))
		return 0
	}

	if err := models.BlockNewVersions(database, doc.ID); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	c.UI.Output(fmt.Sprintf("New versions of document %d are blocked", doc.ID))
	return 0
}

func documentIDArg(f *base.FlagSet) (uint, error) {
	if f.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one argument: the document id")
	}
	var id uint
	if _, err := fmt.Sscan(f.Arg(0), &id); err != nil || id == 0 {
		return 0, fmt.Errorf("invalid document id %q", f.Arg(0))
	}
	return id, nil
}
