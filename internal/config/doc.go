// Package config loads, normalizes, and validates the TOML configuration
// consumed by every Stemline component. Load resolves the config path
// (explicit flag, ~/.config/stemline/config.toml, then ./stemline.toml),
// applies defaults for missing values, expands ~ in paths, and rejects
// configurations the engines cannot run with.
package config
