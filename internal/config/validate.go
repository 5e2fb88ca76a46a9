package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRegulationsGov(); err != nil {
		return err
	}
	if err := c.validateBluesky(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRegulationsGov() error {
	if c.RegulationsGov.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/regwatch/config.toml"
		}
		return fmt.Errorf("regulations_gov.api_key is required. Set REGULATIONS_API_KEY env var or edit %s (create with 'regwatch config init')", defaultPath)
	}
	if c.RegulationsGov.PageSize > 250 {
		return errors.New("regulations_gov.page_size must not exceed the API maximum of 250")
	}
	return nil
}

func (c *Config) validateBluesky() error {
	if !c.Bluesky.Enabled {
		return nil
	}
	if c.Bluesky.Identifier == "" {
		return errors.New("bluesky.identifier must be set when bluesky.enabled is true")
	}
	if c.Bluesky.AppPassword == "" {
		return errors.New("bluesky.app_password is required when bluesky.enabled is true (or set BLUESKY_APP_PASSWORD)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}
