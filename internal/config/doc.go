// Package config loads, normalizes, and validates the TOML configuration
// for regwatch. Values merge in order: built-in defaults, the config file,
// then environment overrides for secrets.
package config
