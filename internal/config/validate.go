package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGateway(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateStores(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateGateway() error {
	switch c.Gateway.Transport {
	case "http":
	default:
		return fmt.Errorf("gateway.transport: unsupported value %q (only \"http\" is available)", c.Gateway.Transport)
	}
	parsed, err := url.Parse(c.Gateway.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("gateway.base_url: %q is not an absolute URL", c.Gateway.BaseURL)
	}
	if c.Gateway.RequestTimeout > 600 {
		return errors.New("gateway.request_timeout must not exceed 600 seconds")
	}
	return nil
}

func (c *Config) validateExport() error {
	if c.Export.PollInterval > 60 {
		return errors.New("export.poll_interval must not exceed 60 seconds")
	}
	return nil
}

func (c *Config) validateStores() error {
	if strings.ContainsAny(c.Snapshots.DirName, `/\`) {
		return errors.New("snapshots.dir_name must be a bare directory name")
	}
	if strings.ContainsAny(c.Snapshots.FileName, `/\`) {
		return errors.New("snapshots.file_name must be a bare file name")
	}
	if strings.ContainsAny(c.Presets.FileName, `/\`) {
		return errors.New("presets.file_name must be a bare file name")
	}
	if c.Presets.PageSize > 100 {
		return errors.New("presets.page_size must not exceed 100")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
