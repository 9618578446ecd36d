// Package clashapi reads the card catalog, player profiles and live events
// from the official game API, and deck usage feeds from RoyaleAPI. RoyaleAPI
// also backs the card list when the official API fails.
package clashapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/decktube/internal/domain/model"
	"github.com/okian/decktube/pkg/logger"
	"github.com/okian/decktube/pkg/metrics"
)

// Defaults.
const (
	DefaultBaseURL     = "https://api.clashroyale.com/v1"
	DefaultFallbackURL = "https://api.royaleapi.com"
	DefaultTimeout     = 10 * time.Second

	maxBodyBytes = 8 << 20
)

// DefaultRateLimit keeps well under the official API quota.
var DefaultRateLimit = rate.Every(100 * time.Millisecond)

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the bearer token for the official API.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithBaseURL overrides the official API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithFallbackURL overrides the RoyaleAPI base URL. Empty disables the fallback.
func WithFallbackURL(u string) Option {
	return func(c *Client) { c.fallbackURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// Client is safe for concurrent use.
type Client struct {
	http        *http.Client
	limiter     *rate.Limiter
	log         logger.Logger
	apiKey      string
	baseURL     string
	fallbackURL string
	statsURL    string
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(DefaultRateLimit, 2),
		baseURL:     DefaultBaseURL,
		fallbackURL: DefaultFallbackURL,
		statsURL:    DefaultStatsURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("clashapi")
	}
	return c
}

type iconURLs struct {
	Medium          string `json:"medium"`
	EvolutionMedium string `json:"evolutionMedium"`
}

type apiCard struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	ElixirCost float64  `json:"elixirCost"`
	Rarity     string   `json:"rarity"`
	Level      int      `json:"level"`
	MaxLevel   int      `json:"maxLevel"`
	IconURLs   iconURLs `json:"iconUrls"`
}

func (a apiCard) toModel() model.Card {
	return model.Card{
		ID:               a.ID,
		Name:             strings.TrimSpace(a.Name),
		ElixirCost:       a.ElixirCost,
		Rarity:           strings.ToLower(a.Rarity),
		IconURL:          a.IconURLs.Medium,
		EvolutionIconURL: a.IconURLs.EvolutionMedium,
	}
}

// FetchCards returns base cards from the official API, or from the fallback
// when the official call fails.
func (c *Client) FetchCards(ctx context.Context) ([]model.Card, error) {
	cards, err := c.officialCards(ctx)
	if err == nil && len(cards) > 0 {
		metrics.RecordCatalogRefresh("official", metrics.OutcomeOK)
		return cards, nil
	}
	metrics.RecordCatalogRefresh("official", metrics.OutcomeError)
	c.log.Warn(ctx, "official card list unavailable, trying fallback", logger.Error(err))

	if c.fallbackURL == "" {
		return nil, fmt.Errorf("%w: %w", ErrNoCards, err)
	}
	fb, fbErr := c.fallbackCards(ctx)
	if fbErr != nil || len(fb) == 0 {
		metrics.RecordCatalogRefresh("fallback", metrics.OutcomeError)
		return nil, fmt.Errorf("%w: official: %v, fallback: %v", ErrNoCards, err, fbErr)
	}
	metrics.RecordCatalogRefresh("fallback", metrics.OutcomeOK)
	return fb, nil
}

func (c *Client) officialCards(ctx context.Context) ([]model.Card, error) {
	var payload struct {
		Items []apiCard `json:"items"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/cards", true, &payload); err != nil {
		return nil, err
	}
	return convert(payload.Items), nil
}

func (c *Client) fallbackCards(ctx context.Context) ([]model.Card, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, c.fallbackURL+"/cards", false, &raw); err != nil {
		return nil, err
	}
	items, err := decodeList[apiCard](raw)
	if err != nil {
		return nil, fmt.Errorf("decode fallback cards: %w", err)
	}
	return convert(items), nil
}

func convert(items []apiCard) []model.Card {
	out := make([]model.Card, 0, len(items))
	for _, it := range items {
		if it.ID == 0 || strings.TrimSpace(it.Name) == "" {
			continue
		}
		out = append(out, it.toModel())
	}
	return out
}

func (c *Client) getJSON(ctx context.Context, url string, auth bool, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if auth && c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned %d", ErrUpstreamStatus, req.URL.Path, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}
