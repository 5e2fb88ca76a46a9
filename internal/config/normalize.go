package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRegulationsGov()
	c.normalizeFederalRegister()
	c.normalizeIngest()
	c.normalizeBluesky()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.SiteDir, err = expandPath(c.Paths.SiteDir); err != nil {
		return fmt.Errorf("paths.site_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeRegulationsGov() {
	if c.RegulationsGov.APIKey == "" {
		if value, ok := os.LookupEnv("REGULATIONS_API_KEY"); ok {
			c.RegulationsGov.APIKey = value
		}
	}
	c.RegulationsGov.BaseURL = strings.TrimRight(strings.TrimSpace(c.RegulationsGov.BaseURL), "/")
	if c.RegulationsGov.BaseURL == "" {
		c.RegulationsGov.BaseURL = defaultRegsGovBaseURL
	}
	if c.RegulationsGov.PageSize <= 0 {
		c.RegulationsGov.PageSize = defaultRegsGovPageSize
	}
	if c.RegulationsGov.MaxPages <= 0 {
		c.RegulationsGov.MaxPages = defaultRegsGovMaxPages
	}
	if c.RegulationsGov.RequestTimeout <= 0 {
		c.RegulationsGov.RequestTimeout = defaultRegsGovTimeout
	}
}

func (c *Config) normalizeFederalRegister() {
	c.FederalRegister.BaseURL = strings.TrimRight(strings.TrimSpace(c.FederalRegister.BaseURL), "/")
	if c.FederalRegister.BaseURL == "" {
		c.FederalRegister.BaseURL = defaultFedRegBaseURL
	}
	if c.FederalRegister.RequestTimeout <= 0 {
		c.FederalRegister.RequestTimeout = defaultFedRegTimeout
	}
}

func (c *Config) normalizeIngest() {
	if c.Ingest.LookbackDays <= 0 {
		c.Ingest.LookbackDays = defaultLookbackDays
	}
	if c.Ingest.NewAnnounceDays <= 0 {
		c.Ingest.NewAnnounceDays = defaultNewAnnounceDays
	}
}

func (c *Config) normalizeBluesky() {
	if c.Bluesky.AppPassword == "" {
		if value, ok := os.LookupEnv("BLUESKY_APP_PASSWORD"); ok {
			c.Bluesky.AppPassword = value
		}
	}
	c.Bluesky.Service = strings.TrimRight(strings.TrimSpace(c.Bluesky.Service), "/")
	if c.Bluesky.Service == "" {
		c.Bluesky.Service = defaultBlueskyService
	}
	if c.Bluesky.RequestTimeout <= 0 {
		c.Bluesky.RequestTimeout = defaultBlueskyTimeout
	}
	if c.Bluesky.MaxPostsPerCycle <= 0 {
		c.Bluesky.MaxPostsPerCycle = defaultMaxPostsPerCycle
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.CycleInterval <= 0 {
		c.Workflow.CycleInterval = defaultCycleInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	return abs, nil
}
