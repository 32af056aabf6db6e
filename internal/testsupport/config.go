// Package testsupport provides shared test fixtures: a config builder seeded
// with per-test temp directories and a fake session service.
package testsupport

import (
	"path/filepath"
	"testing"

	"stemline/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Gateway.BaseURL = "http://127.0.0.1:0/api/v1"
	cfgVal.Snapshots.Watch = false

	builder := &configBuilder{t: t, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithGatewayURL points the test config at a live (usually httptest) server.
func WithGatewayURL(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gateway.BaseURL = baseURL
	}
}

// WithPageSize overrides the preset page size on the test config.
func WithPageSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Presets.PageSize = size
	}
}

// WithoutHistory disables the export run log on the test config.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}
