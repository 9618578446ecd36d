// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers an optional YAML file and DECKTUBE_* env vars on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	YouTube YouTube `koanf:"youtube"`
	Clash   Clash   `koanf:"clash"`
	Ranking Ranking `koanf:"ranking"`
	Storage Storage `koanf:"storage"`
}

// YouTube configures the video search and caption clients.
type YouTube struct {
	APIKey       string `koanf:"api_key"`
	BaseURL      string `koanf:"base_url"`
	TimedTextURL string `koanf:"timedtext_url"`
	// SearchTimeout bounds a single search call.
	SearchTimeout time.Duration `koanf:"search_timeout"`
	// TranscriptTimeout bounds a single caption request.
	TranscriptTimeout time.Duration `koanf:"transcript_timeout"`
	// RequestsPerSecond is shared by all outbound YouTube calls.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	// TranscriptBatchSize and TranscriptBatchDelay shape caption fetching.
	TranscriptBatchSize  int           `koanf:"transcript_batch_size"`
	TranscriptBatchDelay time.Duration `koanf:"transcript_batch_delay"`
	// TranscriptLanguages are tried in order for every video.
	TranscriptLanguages []string `koanf:"transcript_languages"`
}

// Clash configures the card catalog and player profile client.
type Clash struct {
	APIKey      string `koanf:"api_key"`
	BaseURL     string `koanf:"base_url"`
	FallbackURL string `koanf:"fallback_url"`
	// StatsURL serves the popular deck, meta deck and card usage feeds.
	StatsURL string        `koanf:"stats_url"`
	Timeout  time.Duration `koanf:"timeout"`
	// CacheTTL controls how long the normalized card catalog is reused.
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// Ranking configures the relevance pipeline.
type Ranking struct {
	// MaxResults caps the ranked list.
	MaxResults int `koanf:"max_results"`
	// MinCardsMatched discards videos mentioning fewer deck cards.
	MinCardsMatched int `koanf:"min_cards_matched"`
	// TrustedChannels receive a dedicated search and a score bonus.
	TrustedChannels []string `koanf:"trusted_channels"`
}

// Storage configures the saved items database.
type Storage struct {
	// Path to the SQLite file; empty disables saved items.
	Path        string `koanf:"path"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

// DefaultTrustedChannels lists the creators that get a dedicated recent-videos search.
var DefaultTrustedChannels = []string{
	"Clash Royale",
	"B-Rad Gaming",
	"Clash with Ash",
	"OJ",
	"Surgical Goblin",
	"Clash Royale Esports",
	"Clash Royale TV",
	"Clash Royale Pro",
	"Clash Royale Strategy",
	"Clash Royale Deck",
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":9080",
		YouTube: YouTube{
			BaseURL:              "https://www.googleapis.com/youtube/v3",
			TimedTextURL:         "https://www.youtube.com/api/timedtext",
			SearchTimeout:        8 * time.Second,
			TranscriptTimeout:    5 * time.Second,
			RequestsPerSecond:    20,
			TranscriptBatchSize:  5,
			TranscriptBatchDelay: 200 * time.Millisecond,
			TranscriptLanguages:  []string{"en", "en-US", "en-GB"},
		},
		Clash: Clash{
			BaseURL:     "https://api.clashroyale.com/v1",
			FallbackURL: "https://api.royaleapi.com",
			StatsURL:    "https://royaleapi.com/api",
			Timeout:     10 * time.Second,
			CacheTTL:    6 * time.Hour,
		},
		Ranking: Ranking{
			MaxResults:      24,
			MinCardsMatched: 3,
			TrustedChannels: append([]string(nil), DefaultTrustedChannels...),
		},
		Storage: Storage{
			Path:        "data/decktube.db",
			AutoMigrate: true,
		},
	}
}
