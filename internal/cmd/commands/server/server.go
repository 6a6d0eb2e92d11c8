package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/hashicorp-forge/archivist/internal/api/v2"
	"github.com/hashicorp-forge/archivist/internal/cmd/base"
	"github.com/hashicorp-forge/archivist/internal/server"
)

const shutdownTimeout = 10 * time.Second

type Command struct {
	*base.Command

	flagAddr   string
	flagConfig string
}

func (c *Command) Synopsis() string {
	return "Run the server"
}

func (c *Command) Help() string {
	return `Usage: archivist server

  This command runs the Archivist API server. Without -config the server
  uses an SQLite database, file storage and a Bleve index under ./.archivist.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("server", flag.ExitOnError))

	f.StringVar(
		&c.flagAddr, "addr", "",
		"[ARCHIVIST_ADDR] Address to bind to for listening, overriding the config file",
	)
	f.StringVar(
		&c.flagConfig, "config", "",
		"[ARCHIVIST_CONFIG] Path to Archivist config file",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	configPath := c.flagConfig
	if val, ok := os.LookupEnv("ARCHIVIST_CONFIG"); ok && configPath == "" {
		configPath = val
	}
	cfg, err := c.LoadConfig(configPath)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	addr := c.flagAddr
	if val, ok := os.LookupEnv("ARCHIVIST_ADDR"); ok && addr == "" {
		addr = val
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	srv, closeFn, err := server.Open(cfg, c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing server: %v", err))
		return 1
	}
	defer func() {
		if err := closeFn(); err != nil {
			c.Log.Error("error closing server resources", "error", err)
		}
	}()

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(srv),
		ReadHeaderTimeout: 30 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		c.Log.Info("listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			c.UI.Error(fmt.Sprintf("error starting listener: %v", err))
			return 1
		}
	case <-ctx.Done():
		c.Log.Info("shutting down server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		c.UI.Error(fmt.Sprintf("error shutting down server: %v", err))
		return 1
	}

	return 0
}
