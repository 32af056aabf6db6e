package main

import (
	"log/slog"
	"strings"
	"sync"

	"stemline/internal/config"
	"stemline/internal/gateway"
	"stemline/internal/history"
	"stemline/internal/logging"
	"stemline/internal/preset"
	"stemline/internal/snapshot"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	gatewayOnce sync.Once
	gw          gateway.Gateway
	gwErr       error

	snapshotOnce sync.Once
	snapshots    *snapshot.Engine

	presetOnce sync.Once
	presets    *preset.Engine
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

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) ensureGateway() (gateway.Gateway, error) {
	c.gatewayOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.gwErr = err
			return
		}
		c.gw, c.gwErr = gateway.New(cfg, c.ensureLogger())
	})
	return c.gw, c.gwErr
}

// snapshotEngine builds the snapshot engine over a session-derived file
// store. With no session connected the engine works memory-only.
func (c *commandContext) snapshotEngine() (*snapshot.Engine, error) {
	gw, err := c.ensureGateway()
	if err != nil {
		return nil, err
	}
	c.snapshotOnce.Do(func() {
		cfg := c.config
		store := snapshot.NewFileStore(
			gateway.SnapshotDirResolver(gw, cfg.Snapshots.DirName),
			cfg.Snapshots.FileName,
		)
		c.snapshots = snapshot.NewEngine(store, c.ensureLogger())
		if cfg.Snapshots.Watch {
			// Watcher lives for the process; commands are one-shot so
			// there is no explicit Close.
			if _, err := snapshot.NewWatcher(c.snapshots, c.ensureLogger()); err != nil {
				c.ensureLogger().Warn("snapshot store watch unavailable", "error", err)
			}
		}
	})
	return c.snapshots, nil
}

// presetEngine builds the preset engine over the user-level store, with an
// in-memory mirror when configured.
func (c *commandContext) presetEngine() (*preset.Engine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.presetOnce.Do(func() {
		var store preset.Store = preset.NewFileStore(cfg.PresetStorePath())
		if cfg.Presets.MemoryFallback {
			store = preset.NewChainStore(store, preset.NewMemoryStore(), c.ensureLogger())
		}
		c.presets = preset.NewEngine(store, cfg.Presets.PageSize, c.ensureLogger())
	})
	return c.presets, nil
}

// historyStore opens the export run log. Returns nil when history is
// disabled; callers treat that as "no recording".
func (c *commandContext) historyStore() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, nil
	}
	return history.Open(cfg.HistoryPath())
}
