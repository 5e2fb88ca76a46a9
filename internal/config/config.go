package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	SiteDir string `toml:"site_dir"`
	APIBind string `toml:"api_bind"`
}

// RegulationsGov contains configuration for the regulations.gov v4 API.
type RegulationsGov struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	PageSize       int    `toml:"page_size"`
	MaxPages       int    `toml:"max_pages"`
	RequestTimeout int    `toml:"request_timeout"`
}

// FederalRegister contains configuration for the Federal Register v1 API
// used to enrich abstracts and keywords.
type FederalRegister struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Ingest contains configuration for the ingestion controller.
type Ingest struct {
	// LookbackDays is how far back the posted-date filter reaches each
	// cycle. Must be wider than the cycle interval to absorb upstream
	// publication latency and re-delivery.
	LookbackDays int `toml:"lookback_days"`
	// NewAnnounceDays bounds how old a period's posted date may be for it
	// to still qualify for a "new" announcement.
	NewAnnounceDays int      `toml:"new_announce_days"`
	DocumentTypes   []string `toml:"document_types"`
}

// Bluesky contains configuration for the posting sink.
type Bluesky struct {
	Enabled        bool   `toml:"enabled"`
	Service        string `toml:"service"`
	Identifier     string `toml:"identifier"`
	AppPassword    string `toml:"app_password"`
	RequestTimeout int    `toml:"request_timeout"`
	// MaxPostsPerCycle caps deliveries in one cycle so a large backlog
	// cannot flood the feed; remaining obligations carry to the next run.
	MaxPostsPerCycle int `toml:"max_posts_per_cycle"`
}

// Workflow contains configuration for daemon timing, in seconds.
type Workflow struct {
	CycleInterval      int `toml:"cycle_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for regwatch.
type Config struct {
	Paths           Paths           `toml:"paths"`
	RegulationsGov  RegulationsGov  `toml:"regulations_gov"`
	FederalRegister FederalRegister `toml:"federal_register"`
	Ingest          Ingest          `toml:"ingest"`
	Bluesky         Bluesky         `toml:"bluesky"`
	Workflow        Workflow        `toml:"workflow"`
	Logging         Logging         `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/regwatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
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
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the data, log, and site directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.SiteDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "regwatch.db")
}

// WriteSample writes the embedded sample configuration to the given path.
// It refuses to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
