// Package config defines client configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// BaseURL points at the prode backend, e.g. "https://api.prodef1.com".
	BaseURL string `koanf:"base_url"`

	// StorePath locates the client-local key-value store file.
	StorePath string `koanf:"store_path"`

	// HTTPTimeoutMS bounds every API request.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`

	// LockWindowMin is how many minutes before session start submissions lock.
	LockWindowMin int `koanf:"lock_window_min"`

	// PollIntervalSec is the deadline watchdog check interval.
	PollIntervalSec int `koanf:"poll_interval_sec"`

	// HydrateWorkers bounds concurrent result-status fetches.
	HydrateWorkers int `koanf:"hydrate_workers"`

	// SeasonYear tags the cached score with its season.
	SeasonYear int `koanf:"season_year"`

	// TopN is how many finishing positions result views show.
	TopN int `koanf:"top_n"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		BaseURL:         "http://localhost:9080",
		StorePath:       defaultStorePath(),
		HTTPTimeoutMS:   10_000,
		LockWindowMin:   5,
		PollIntervalSec: 30,
		HydrateWorkers:  6,
		SeasonYear:      time.Now().Year(),
		TopN:            3,
	}
}

// HTTPTimeout returns the request timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// LockWindow returns the watchdog lock window as a duration.
func (c *Config) LockWindow() time.Duration {
	return time.Duration(c.LockWindowMin) * time.Minute
}

// PollInterval returns the watchdog poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "prode-store.json"
	}
	return filepath.Join(dir, "prode", "store.json")
}
