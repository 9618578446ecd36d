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

// Environment variable names.
const (
	EnvPrefix     = "DECKTUBE_"
	EnvConfigFile = "DECKTUBE_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if DECKTUBE_CONFIG is set
//  3. env (prefix DECKTUBE_, "__" separates nested keys)
func Load(_ context.Context) (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// DECKTUBE_YOUTUBE__API_KEY -> youtube.api_key
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the rest of the service relies on.
func (c *Config) Validate() error {
	switch {
	case c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrLogFormat, c.LogFormat)
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.YouTube.TranscriptBatchSize < 1:
		return fmt.Errorf("%w: youtube.transcript_batch_size must be positive", ErrInvalidConfig)
	case c.YouTube.SearchTimeout <= 0 || c.YouTube.TranscriptTimeout <= 0:
		return fmt.Errorf("%w: youtube timeouts must be positive", ErrInvalidConfig)
	case c.YouTube.RequestsPerSecond <= 0:
		return fmt.Errorf("%w: youtube.requests_per_second must be positive", ErrInvalidConfig)
	case len(c.YouTube.TranscriptLanguages) == 0:
		return fmt.Errorf("%w: youtube.transcript_languages must not be empty", ErrInvalidConfig)
	case c.Ranking.MaxResults < 1:
		return fmt.Errorf("%w: ranking.max_results must be positive", ErrInvalidConfig)
	case c.Ranking.MinCardsMatched < 1 || c.Ranking.MinCardsMatched > 8:
		return fmt.Errorf("%w: ranking.min_cards_matched must be within 1..8", ErrInvalidConfig)
	}
	return nil
}
