package operator

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/archivist/internal/cmd/base"
	"github.com/hashicorp-forge/archivist/pkg/models"
)

type CreateUserCommand struct {
	*base.Command

	flagConfig string
	flagAdmin  bool
	flagEmail  string
	flagRole   string
}

func (c *CreateUserCommand) Synopsis() string {
	return "Create a user"
}

func (c *CreateUserCommand) Help() string {
	return `Usage: archivist operator create-user [options] <username>

  This command creates a user. Use "archivist operator create-token" to issue
  an API token for the new user.` +
		c.Flags().Help()
}

func (c *CreateUserCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("create-user", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to Archivist config file",
	)
	f.BoolVar(
		&c.flagAdmin, "admin", false,
		"Make the user an administrator. Administrators bypass permission checks.",
	)
	f.StringVar(
		&c.flagEmail, "email", "", "Email address of the user",
	)
	f.StringVar(
		&c.flagRole, "role", "",
		"Label of a role to add the user to. The role is created if it does not exist.",
	)

	return f
}

func (c *CreateUserCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("expected exactly one argument: the username")
		return 1
	}

	database, closeDB, err := openDB(c.Command, c.flagConfig)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	defer closeDB()

	u := &models.User{
		Username:     f.Arg(0),
		EmailAddress: c.flagEmail,
		IsAdmin:      c.flagAdmin,
	}
	if err := u.Create(database); err != nil {
		c.UI.Error(fmt.Sprintf("error creating user: %v", err))
		return 1
	}

	if c.flagRole != "" {
		var r models.Role
		if err := r.GetByLabel(database, c.flagRole); err != nil {
			r = models.Role{Label: c.flagRole}
			if err := r.Create(database); err != nil {
				c.UI.Error(fmt.Sprintf("error creating role: %v", err))
				return 1
			}
		}
		if err := r.AddUser(database, u); err != nil {
			c.UI.Error(err.Error())
			return 1
		}
	}

	c.Log.Info("created user", "id", u.ID, "username", u.Username, "admin", u.IsAdmin)
	c.UI.Output(fmt.Sprintf("Created user %q (id %d)", u.Username, u.ID))
	return 0
}
