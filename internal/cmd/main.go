package cmd

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/archivist/internal/version"
)

// LogLevelEnvVar sets the root log level before a config file is loaded.
const LogLevelEnvVar = "ARCHIVIST_LOG_LEVEL"

// Main runs the archivist CLI with the given arguments and returns the exit
// code. Running archivist without a subcommand starts the server.
func Main(args []string) int {
	name := filepath.Base(args[0])

	log := hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.LevelFromString(os.Getenv(LogLevelEnvVar)),
	})

	switch {
	case len(args) == 1:
		args = append(args, "server")
	case len(args) == 2 && (args[1] == "-version" || args[1] == "--version" || args[1] == "-v"):
		args = []string{args[0], "version"}
	}

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	initCommands(log, ui)

	c := &cli.CLI{
		Name:     name,
		Args:     args[1:],
		Version:  version.Version,
		Commands: Commands,
	}

	exitCode, err := c.Run()
	if err != nil {
		ui.Error("error running command: " + err.Error())
		return 1
	}
	return exitCode
}
