package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"pressline/internal/config"
	"pressline/internal/document"
	"pressline/internal/queue"
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

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
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

// withStores opens the work store and document store for the duration of fn.
func (c *commandContext) withStores(fn func(cfg *config.Config, store *queue.Store, docs *document.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open work store: %w", err)
	}
	defer store.Close()
	docs, err := document.OpenFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	return fn(cfg, store, docs)
}

// withExclusiveStores is withStores guarded by the daemon lock, so one-shot
// pipeline runs refuse to start while the daemon owns the data directory.
func (c *commandContext) withExclusiveStores(fn func(cfg *config.Config, store *queue.Store, docs *document.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("pressline daemon is running; stop it before running the pipeline by hand")
	}
	defer lock.Unlock()
	return c.withStores(fn)
}

// daemonRunning probes the daemon lock without holding it.
func daemonRunning(cfg *config.Config) bool {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return false
	}
	if ok {
		_ = lock.Unlock()
		return false
	}
	return true
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
