package clashapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultStatsURL serves RoyaleAPI's deck and card usage feeds.
const DefaultStatsURL = "https://royaleapi.com/api"

// Feed bounds.
const (
	DefaultTopDecks    = 20
	MaxTopDecks        = 100
	DefaultMinTrophies = 6000
	MetaWindow         = "7d"
	MaxSearchCards     = 8
)

// WithStatsURL overrides the deck and card usage feed URL. Empty disables the feeds.
func WithStatsURL(u string) Option {
	return func(c *Client) { c.statsURL = strings.TrimRight(u, "/") }
}

// TopDeck is a deck from the popularity feeds with its usage numbers.
type TopDeck struct {
	Cards      []int    `json:"cards"`
	CardNames  []string `json:"cardNames"`
	Popularity float64  `json:"popularity"`
	WinRate    float64  `json:"winRate"`
	Usage      float64  `json:"usage"`
}

// TopDecks returns the most played decks, at most limit of them.
func (c *Client) TopDecks(ctx context.Context, limit int) ([]TopDeck, error) {
	if limit <= 0 {
		limit = DefaultTopDecks
	}
	limit = min(limit, MaxTopDecks)
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	decks, err := c.statsList(ctx, "/decks/popular", q)
	if err != nil {
		return nil, err
	}
	out, err := decodeList[TopDeck](decks)
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MetaDecks returns the decks played most over the last week at or above minTrophies.
func (c *Client) MetaDecks(ctx context.Context, minTrophies int) ([]TopDeck, error) {
	if minTrophies <= 0 {
		minTrophies = DefaultMinTrophies
	}
	q := url.Values{
		"min_trophies": {strconv.Itoa(minTrophies)},
		"time_mode":    {MetaWindow},
	}
	raw, err := c.statsList(ctx, "/decks/meta", q)
	if err != nil {
		return nil, err
	}
	return decodeList[TopDeck](raw)
}

// SearchDecks returns decks holding every card in cardIDs.
func (c *Client) SearchDecks(ctx context.Context, cardIDs []int) ([]TopDeck, error) {
	if len(cardIDs) == 0 || len(cardIDs) > MaxSearchCards {
		return nil, fmt.Errorf("%w: want 1 to %d card ids, got %d", ErrInvalidQuery, MaxSearchCards, len(cardIDs))
	}
	ids := make([]string, 0, len(cardIDs))
	for _, id := range cardIDs {
		if id <= 0 {
			return nil, fmt.Errorf("%w: card id %d", ErrInvalidQuery, id)
		}
		ids = append(ids, strconv.Itoa(id))
	}
	raw, err := c.statsList(ctx, "/decks/search", url.Values{"cards": {strings.Join(ids, ",")}})
	if err != nil {
		return nil, err
	}
	return decodeList[TopDeck](raw)
}

// CardStats returns per card usage and win rates as RoyaleAPI reports them.
func (c *Client) CardStats(ctx context.Context) ([]json.RawMessage, error) {
	raw, err := c.statsList(ctx, "/cards/stats", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[json.RawMessage](raw)
}

// Challenges returns the challenges currently running in game.
func (c *Client) Challenges(ctx context.Context) ([]json.RawMessage, error) {
	return c.officialItems(ctx, "/challenges")
}

// Tournaments returns the global tournaments currently scheduled.
func (c *Client) Tournaments(ctx context.Context) ([]json.RawMessage, error) {
	return c.officialItems(ctx, "/globaltournaments")
}

func (c *Client) statsList(ctx context.Context, path string, q url.Values) (json.RawMessage, error) {
	if c.statsURL == "" {
		return nil, ErrFeedDisabled
	}
	u := c.statsURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var raw json.RawMessage
	if err := c.getJSON(ctx, u, false, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) officialItems(ctx context.Context, path string) ([]json.RawMessage, error) {
	var payload struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := c.getJSON(ctx, c.baseURL+path, true, &payload); err != nil {
		return nil, err
	}
	if payload.Items == nil {
		return []json.RawMessage{}, nil
	}
	return payload.Items, nil
}

// decodeList accepts both a bare array and an items envelope.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		var env struct {
			Items []T `json:"items"`
		}
		if err2 := json.Unmarshal(raw, &env); err2 != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		items = env.Items
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
