package operator

import (
	"errors"
	"flag"
	"fmt"

	"gorm.io/gorm"

	"github.com/hashicorp-forge/archivist/internal/cmd/base"
	"github.com/hashicorp-forge/archivist/pkg/models"
	"github.com/hashicorp-forge/archivist/pkg/permissions"
)

type GrantCommand struct {
	*base.Command

	flagConfig   string
	flagUser     string
	flagRole     string
	flagCabinet  uint
	flagDocument uint
	flagRevoke   bool
}

func (c *GrantCommand) Synopsis() string {
	return "Grant or revoke a permission"
}

func (c *GrantCommand) Help() string {
	return `Usage: archivist operator grant [options] <permission>

  This command grants a permission to a user or a role. Without -cabinet or
  -document the grant is global.

  Permissions:
` + permissionList() + c.Flags().Help()
}

func (c *GrantCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("grant", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to Archivist config file",
	)
	f.StringVar(
		&c.flagUser, "user", "", "Username to grant the permission to",
	)
	f.StringVar(
		&c.flagRole, "role", "", "Label of the role to grant the permission to",
	)
	f.UintVar(
		&c.flagCabinet, "cabinet", 0, "Cabinet the grant applies to",
	)
	f.UintVar(
		&c.flagDocument, "document", 0, "Document the grant applies to",
	)
	f.BoolVar(
		&c.flagRevoke, "revoke", false, "Revoke the grant instead of creating it",
	)

	return f
}

func (c *GrantCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("expected exactly one argument: the permission")
		return 1
	}
	perm := permissions.Permission(f.Arg(0))
	if !perm.Valid() {
		c.UI.Error(fmt.Sprintf("unknown permission %q", perm))
		return 1
	}
	if (c.flagUser == "") == (c.flagRole == "") {
		c.UI.Error("exactly one of -user and -role is required")
		return 1
	}
	if c.flagCabinet != 0 && c.flagDocument != 0 {
		c.UI.Error("-cabinet and -document are mutually exclusive")
		return 1
	}

	var obj *permissions.Object
	switch {
	case c.flagCabinet != 0:
		o := permissions.CabinetObject(c.flagCabinet)
		obj = &o
	case c.flagDocument != 0:
		o := permissions.DocumentObject(c.flagDocument)
		obj = &o
	}

	database, closeDB, err := openDB(c.Command, c.flagConfig)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	defer closeDB()

	subject, err := c.subject(database)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	if c.flagRevoke {
		if err := permissions.Revoke(database, subject, perm, obj); err != nil {
			c.UI.Error(fmt.Sprintf("error revoking permission: %v", err))
			return 1
		}
		c.UI.Output(fmt.Sprintf("Revoked %s", perm))
		return 0
	}

	g, err := permissions.Grant(database, subject, perm, obj)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error granting permission: %v", err))
		return 1
	}
	c.Log.Info("granted permission", "grant_id", g.ID, "permission", g.Permission)
	c.UI.Output(fmt.Sprintf("Granted %s (grant id %d)", perm, g.ID))
	return 0
}

func (c *GrantCommand) subject(database *gorm.DB) (permissions.Subject, error) {
	if c.flagUser != "" {
		var u models.User
		if err := u.GetByUsername(database, c.flagUser); errors.Is(err, gorm.ErrRecordNotFound) {
			return permissions.Subject{}, fmt.Errorf("user %q not found", c.flagUser)
		} else if err != nil {
			return permissions.Subject{}, fmt.Errorf("error getting user: %w", err)
		}
		return permissions.UserSubject(&u), nil
	}

	var r models.Role
	if err := r.GetByLabel(database, c.flagRole); errors.Is(err, gorm.ErrRecordNotFound) {
		return permissions.Subject{}, fmt.Errorf("role %q not found", c.flagRole)
	} else if err != nil {
		return permissions.Subject{}, fmt.Errorf("error getting role: %w", err)
	}
	return permissions.RoleSubject(&r), nil
}

func permissionList() string {
	var s string
	for _, p := range permissions.All() {
		s += fmt.Sprintf("    %-34s %s\n", p, p.Label())
	}
	return s
}
