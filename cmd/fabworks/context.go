package main

import (
	"log/slog"
	"strings"
	"sync"

	"fabworks/internal/config"
	"fabworks/internal/logging"
	"fabworks/internal/store"
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

// withStore opens the database for the duration of fn.
func (c *commandContext) withStore(fn func(cfg *config.Config, st *store.Store, logger *slog.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cfg, st, logger)
}
