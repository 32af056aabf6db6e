package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGateway()
	c.normalizeExport()
	c.normalizeStores()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGateway() {
	c.Gateway.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gateway.BaseURL), "/")
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = defaultGatewayBaseURL
	}
	c.Gateway.Transport = strings.ToLower(strings.TrimSpace(c.Gateway.Transport))
	if c.Gateway.Transport == "" {
		c.Gateway.Transport = defaultGatewayTransport
	}
	if c.Gateway.RequestTimeout <= 0 {
		c.Gateway.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeExport() {
	if c.Export.PollInterval <= 0 {
		c.Export.PollInterval = defaultPollInterval
	}
	if c.Export.PollFailureLimit <= 0 {
		c.Export.PollFailureLimit = defaultPollFailureLimit
	}
}

func (c *Config) normalizeStores() {
	c.Snapshots.DirName = strings.TrimSpace(c.Snapshots.DirName)
	if c.Snapshots.DirName == "" {
		c.Snapshots.DirName = defaultSnapshotDirName
	}
	c.Snapshots.FileName = strings.TrimSpace(c.Snapshots.FileName)
	if c.Snapshots.FileName == "" {
		c.Snapshots.FileName = defaultSnapshotFileName
	}
	c.Presets.FileName = strings.TrimSpace(c.Presets.FileName)
	if c.Presets.FileName == "" {
		c.Presets.FileName = defaultPresetFileName
	}
	if c.Presets.PageSize <= 0 {
		c.Presets.PageSize = defaultPresetPageSize
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
