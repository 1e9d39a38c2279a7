package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gavel/internal/config"
	"gavel/internal/lock"
	"gavel/internal/logging"
	"gavel/internal/state"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
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

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openStore(testMode bool) (*state.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return state.Open(cfg.Paths.StateFile, state.WithTestMode(testMode))
}

// withLock runs fn while holding the single-instance lock. A second gavel
// process waiting past the configured timeout fails instead of running
// concurrently.
func (c *commandContext) withLock(ctx context.Context, fn func() error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	guard := lock.New(cfg.Paths.LockFile,
		lock.WithTimeout(time.Duration(cfg.Lock.TimeoutSeconds)*time.Second),
		lock.WithPollInterval(time.Duration(cfg.Lock.PollIntervalSeconds)*time.Second))
	if err := guard.Acquire(ctx); err != nil {
		return err
	}
	defer guard.Release() //nolint:errcheck
	return fn()
}
