package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"therapyfinder/internal/config"
	"therapyfinder/internal/logging"
	"therapyfinder/internal/runlock"
	"therapyfinder/internal/services"
	"therapyfinder/internal/store"
	"therapyfinder/internal/taxonomy"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
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

// configPath is the --config value; empty means the default search order.
func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
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

// runContext derives the context of one batch invocation: it carries a fresh
// run id for log correlation and is cancelled on SIGINT or SIGTERM.
func (c *commandContext) runContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return services.WithRunID(ctx, uuid.NewString()), stop
}

func (c *commandContext) withStore(fn func(*store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(st)
}

// withBatch opens the store under the run lock so two mutating commands
// never interleave.
func (c *commandContext) withBatch(fn func(*store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock, err := runlock.Acquire(lockPath(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()
	return c.withStore(fn)
}

func (c *commandContext) matcher() (*taxonomy.KeywordMatcher, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return taxonomy.NewKeywordMatcher(taxonomy.Tables{
		GeneralistKeywords: cfg.Taxonomy.GeneralistKeywords,
		CoreCategories:     cfg.Taxonomy.CoreCategories,
		SpecificKeywords:   cfg.Taxonomy.SpecificKeywords,
	}), nil
}

func lockPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.DataDir, "finder.lock")
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
