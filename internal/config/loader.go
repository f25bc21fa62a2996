package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PRODE_CONFIG is set
//  3. env (prefix PRODE_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("PRODE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: PRODE_BASE_URL, PRODE_LOCK_WINDOW_MIN, ...
	// Map env keys like PRODE_BASE_URL -> base_url (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("PRODE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "prode_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Basic validation
	switch {
	case cfg.BaseURL == "":
		return nil, fmt.Errorf("%w: base_url must not be empty", ErrInvalidConfig)
	case cfg.StorePath == "":
		return nil, fmt.Errorf("%w: store_path must not be empty", ErrInvalidConfig)
	case cfg.LockWindowMin <= 0:
		return nil, fmt.Errorf("%w: lock_window_min must be positive", ErrInvalidConfig)
	case cfg.PollIntervalSec <= 0:
		return nil, fmt.Errorf("%w: poll_interval_sec must be positive", ErrInvalidConfig)
	case cfg.HydrateWorkers <= 0:
		return nil, fmt.Errorf("%w: hydrate_workers must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
