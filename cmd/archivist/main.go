package main

import (
	"os"

	"github.com/hashicorp-forge/archivist/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
