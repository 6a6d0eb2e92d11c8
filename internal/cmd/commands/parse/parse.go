package parse

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/archivist/internal/cmd/base"
	"github.com/hashicorp-forge/archivist/internal/server"
	"github.com/hashicorp-forge/archivist/pkg/models"
)

type Command struct {
	*base.Command

	flagConfig string
	flagAll    bool
}

func (c *Command) Synopsis() string {
	return "Extract the text of documents again"
}

func (c *Command) Help() string {
	return `Usage: archivist parse [options] [document id...]

  This command runs text extraction on the latest version of the given
  documents and updates their search index entries. Use -all to process
  every document.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("parse", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to Archivist config file",
	)
	f.BoolVar(
		&c.flagAll, "all", false, "Process every document",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	var ids []uint
	for _, arg := range f.Args() {
		var id uint
		if _, err := fmt.Sscan(arg, &id); err != nil || id == 0 {
			c.UI.Error(fmt.Sprintf("invalid document id %q", arg))
			return 1
		}
		ids = append(ids, id)
	}
	if c.flagAll == (len(ids) > 0) {
		c.UI.Error("either -all or at least one document id is required")
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

	var docs []models.Document
	q := srv.DB.WithContext(ctx).Order("id ASC")
	if !c.flagAll {
		q = q.Where("id IN ?", ids)
	}
	if err := q.Find(&docs).Error; err != nil {
		c.UI.Error(fmt.Sprintf("error getting documents: %v", err))
		return 1
	}
	if !c.flagAll && len(docs) != len(ids) {
		c.UI.Warn(fmt.Sprintf("%d of %d documents not found", len(ids)-len(docs), len(ids)))
	}

	var result *multierror.Error
	for i := range docs {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}
		if err := srv.Processor.Process(ctx, &docs[i]); err != nil {
			result = multierror.Append(result, fmt.Errorf("document %d: %w", docs[i].ID, err))
			continue
		}
		c.UI.Info(fmt.Sprintf("Processed document %d (%s)", docs[i].ID, docs[i].Label))
	}
	if err := result.ErrorOrNil(); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	return 0
}
