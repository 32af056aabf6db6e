package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Gateway contains connection settings for the session service.
type Gateway struct {
	BaseURL        string `toml:"base_url"`
	Transport      string `toml:"transport"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Export contains orchestrator timing and failure tolerance settings.
type Export struct {
	PollInterval     int `toml:"poll_interval"`
	PollFailureLimit int `toml:"poll_failure_limit"`
}

// Snapshots contains settings for the session-derived snapshot store.
type Snapshots struct {
	DirName  string `toml:"dir_name"`
	FileName string `toml:"file_name"`
	Watch    bool   `toml:"watch"`
}

// Presets contains settings for the user-level preset store.
type Presets struct {
	FileName       string `toml:"file_name"`
	PageSize       int    `toml:"page_size"`
	MemoryFallback bool   `toml:"memory_fallback"`
}

// History contains settings for the local export run log.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Stemline.
//
// Configuration sections by subsystem:
//   - Paths: user-level data and log directories
//   - Gateway: session service transport, base URL, and request timeout
//   - Export: orchestrator poll interval and transport failure tolerance
//   - Snapshots: session-derived snapshot store layout and watching
//   - Presets: preset store layout, page size, and memory fallback
//   - History: local export run log
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Gateway   Gateway   `toml:"gateway"`
	Export    Export    `toml:"export"`
	Snapshots Snapshots `toml:"snapshots"`
	Presets   Presets   `toml:"presets"`
	History   History   `toml:"history"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/stemline/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("stemline.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the user-level directories required for operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.PresetDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PresetDir returns the directory holding the preset store file.
func (c *Config) PresetDir() string {
	return filepath.Join(c.Paths.DataDir, "presets")
}

// PresetStorePath returns the full path to the preset store file.
func (c *Config) PresetStorePath() string {
	return filepath.Join(c.PresetDir(), c.Presets.FileName)
}

// HistoryPath returns the full path to the export run database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// GatewayTimeout returns the request timeout as a duration.
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.RequestTimeout) * time.Second
}

// ExportPollInterval returns the status poll interval as a duration.
func (c *Config) ExportPollInterval() time.Duration {
	return time.Duration(c.Export.PollInterval) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
