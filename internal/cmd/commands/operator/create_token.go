package operator

import (
	"flag"
	"fmt"
	"time"

	"github.com/hashicorp-forge/archivist/internal/cmd/base"
	"github.com/hashicorp-forge/archivist/pkg/models"
)

type CreateTokenCommand struct {
	*base.Command

	flagConfig string
	flagTTL    time.Duration
}

func (c *CreateTokenCommand) Synopsis() string {
	return "Issue an API token for a user"
}

func (c *CreateTokenCommand) Help() string {
	return `Usage: archivist operator create-token [options] <username>

  This command issues an API token for a user and prints it. The token is
  only shown once.` +
		c.Flags().Help()
}

func (c *CreateTokenCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("create-token", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to Archivist config file",
	)
	f.DurationVar(
		&c.flagTTL, "ttl", 0,
		"Lifetime of the token. Zero issues a token that does not expire.",
	)

	return f
}

func (c *CreateTokenCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("expected exactly one argument: the username")
		return 1
	}
	if c.flagTTL < 0 {
		c.UI.Error("ttl must not be negative")
		return 1
	}

	database, closeDB, err := openDB(c.Command, c.flagConfig)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	defer closeDB()

	var u models.User
	if err := u.GetByUsername(database, f.Arg(0)); err != nil {
		c.UI.Error(fmt.Sprintf("error getting user: %v", err))
		return 1
	}

	token, tok, err := models.IssueToken(database, u.ID, c.flagTTL)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error issuing token: %v", err))
		return 1
	}

	c.Log.Info("issued API token", "token_id", tok.ID, "username", u.Username)
	c.UI.Output(token)
	return 0
}
