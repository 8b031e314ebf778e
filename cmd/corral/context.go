package main

import (
	"strings"
	"sync"

	"corral/internal/config"
	"corral/internal/engine"
	"corral/internal/logging"
	"corral/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the store for the duration of one command.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cfg, st)
}

// withCoordinator wires a full engine on top of the store for commands that
// run passes.
func (c *commandContext) withCoordinator(fn func(*config.Config, *store.Store, *engine.Coordinator) error) error {
	return c.withStore(func(cfg *config.Config, st *store.Store) error {
		// Logs go to stderr so table and JSON output stay clean on stdout.
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{"stderr"},
		})
		if err != nil {
			return err
		}
		return fn(cfg, st, engine.NewCoordinator(cfg, st, logger))
	})
}
