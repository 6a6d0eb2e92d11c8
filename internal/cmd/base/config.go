package base

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/archivist/internal/config"
)

// LoadConfig loads the configuration file, or the defaults when path is
// empty, and sets the log level from it.
func (c *Command) LoadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg = config.Default()
	} else {
		cfg, err = config.NewConfig(path)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if c.Log != nil {
		c.Log.SetLevel(hclog.LevelFromString(cfg.LogLevel))
	}
	return cfg, nil
}
