package testsupport

import (
	"path/filepath"
	"testing"

	"regwatch/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SiteDir = filepath.Join(base, "site")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.RegulationsGov.APIKey = "test"
	cfg.Bluesky.Enabled = false
	cfg.FederalRegister.Enabled = false

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithNewAnnounceDays overrides the announce window on the test config.
func WithNewAnnounceDays(days int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Ingest.NewAnnounceDays = days
	}
}

// WithMaxPostsPerCycle overrides the delivery cap on the test config.
func WithMaxPostsPerCycle(limit int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Bluesky.MaxPostsPerCycle = limit
	}
}
