package main

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"rasteralign/internal/config"
	"rasteralign/internal/ledger"
	"rasteralign/internal/logging"
)

type commandContext struct {
	configFlag  *string
	jsonFlag    *bool
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, jsonFlag, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		jsonFlag:    jsonFlag,
		verboseFlag: verboseFlag,
	}
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
		if c.verboseFlag != nil && *c.verboseFlag {
			cfg.Logging.Level = "debug"
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// JSONMode reports whether the caller asked for JSON output.
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

// withLedger opens the configured ledger for the duration of fn. A nil store
// is passed when no ledger path is configured.
func (c *commandContext) withLedger(fn func(*ledger.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Paths.LedgerPath) == "" {
		return fn(nil)
	}
	store, err := ledger.Open(cfg.Paths.LedgerPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

const (
	exitFailure     = 1
	exitFilesFailed = 2
)

func exitCode(err error) int {
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	return exitFailure
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
