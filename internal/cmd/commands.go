package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/archivist/internal/cmd/base"
	"github.com/hashicorp-forge/archivist/internal/cmd/commands/operator"
	"github.com/hashicorp-forge/archivist/internal/cmd/commands/parse"
	"github.com/hashicorp-forge/archivist/internal/cmd/commands/server"
	"github.com/hashicorp-forge/archivist/internal/cmd/commands/version"
)

// Commands is the mapping of all available Archivist commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := base.NewCommand(log, ui)

	Commands = map[string]cli.CommandFactory{
		"operator": func() (cli.Command, error) {
			return &operator.Command{Command: b}, nil
		},
		"operator create-token": func() (cli.Command, error) {
			return &operator.CreateTokenCommand{Command: b}, nil
		},
		"operator create-user": func() (cli.Command, error) {
			return &operator.CreateUserCommand{Command: b}, nil
		},
		"operator grant": func() (cli.Command, error) {
			return &operator.GrantCommand{Command: b}, nil
		},
		"operator new-version-block": func() (cli.Command, error) {
			return &operator.NewVersionBlockCommand{Command: b}, nil
		},
		"operator reindex": func() (cli.Command, error) {
			return &operator.ReindexCommand{Command: b}, nil
		},
		"parse": func() (cli.Command, error) {
			return &parse.Command{Command: b}, nil
		},
		"server": func() (cli.Command, error) {
			return &server.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
