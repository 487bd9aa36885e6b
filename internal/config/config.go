// Package config loads server settings and gameplay tuning from a JSON file
// with environment overrides for deployment-specific values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"flappy/internal/domain"
)

// Config is the full server configuration. The zero file is valid: every
// field has a default and a partial tuning block merges over the canonical
// constants.
type Config struct {
	ListenAddr              string `json:"listen_addr"`
	SnapshotPath            string `json:"snapshot_path"`
	SnapshotIntervalSeconds int    `json:"snapshot_interval_seconds"`
	SessionSecret           string `json:"session_secret"`
	SessionIssuer           string `json:"session_issuer"`
	Validator               string `json:"validator"`
	LogLevel                string `json:"log_level"`

	Tuning domain.Tuning `json:"tuning"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		ListenAddr:              ":8080",
		SnapshotPath:            "flappy.snapshot",
		SnapshotIntervalSeconds: 60,
		SessionIssuer:           "flappyd",
		Validator:               "rollup-validator",
		LogLevel:                "info",
		Tuning:                  domain.DefaultTuning(),
	}
}

// Load reads the configuration file at path. An empty path yields defaults.
// Fields absent from the file keep their default values, including inside
// the tuning block.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides file values with environment variables, so deployments
// can keep secrets out of the config file.
func ApplyEnv(c *Config) {
	if v := os.Getenv("FLAPPY_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("FLAPPY_SNAPSHOT_PATH"); v != "" {
		c.SnapshotPath = v
	}
	if v := os.Getenv("FLAPPY_SNAPSHOT_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.SnapshotIntervalSeconds = n
		}
	}
	if v := os.Getenv("FLAPPY_SESSION_SECRET"); v != "" {
		c.SessionSecret = v
	}
	if v := os.Getenv("FLAPPY_SESSION_ISSUER"); v != "" {
		c.SessionIssuer = v
	}
	if v := os.Getenv("FLAPPY_VALIDATOR"); v != "" {
		c.Validator = v
	}
	if v := os.Getenv("FLAPPY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}
