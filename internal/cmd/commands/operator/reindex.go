package operator

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp-forge/archivist/internal/cmd/base"
	"github.com/hashicorp-forge/archivist/internal/server"
)

type ReindexCommand struct {
	*base.Command

	flagConfig string
}

func (c *ReindexCommand) Synopsis() string {
	return "Rebuild the search indexes"
}

func (c *ReindexCommand) Help() string {
	return `Usage: archivist operator reindex [options]

  This command clears the search indexes and indexes every document and its
  pages again from the database. Page text is not extracted again; use
  "archivist parse" for that.` +
		c.Flags().Help()
}

func (c *ReindexCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("reindex", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to Archivist config file",
	)

	return f
}

func (c *ReindexCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := c.LoadConfig(c.flagConfig)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	srv, closeFn, err := server.Open(cfg, c.Log)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	defer closeFn()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	n, err := srv.Indexer.Reindex(ctx)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reindexing: %v", err))
		c.UI.Warn(fmt.Sprintf("Indexed %d documents before failing", n))
		return 1
	}

	c.UI.Output(fmt.Sprintf("Indexed %d documents in %s", n, time.Since(start).Round(time.Millisecond)))
	return 0
}
