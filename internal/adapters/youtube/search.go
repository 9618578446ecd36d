package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/html"

	"github.com/okian/decktube/internal/domain/model"
	"github.com/okian/decktube/pkg/logger"
	"github.com/okian/decktube/pkg/metrics"
)

type thumb struct {
	URL string `json:"url"`
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			PublishedAt  time.Time        `json:"publishedAt"`
			ChannelTitle string           `json:"channelTitle"`
			Title        string           `json:"title"`
			Description  string           `json:"description"`
			Thumbnails   map[string]thumb `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Search runs one strategy. Any failure is logged and yields an empty list.
func (c *Client) Search(ctx context.Context, s model.SearchStrategy) []model.VideoCandidate {
	start := time.Now()
	videos, err := c.SearchStrict(ctx, s)
	latency := float64(time.Since(start).Milliseconds())
	switch {
	case err != nil:
		metrics.RecordSearchCall(string(s.Tier), metrics.OutcomeError, latency)
		metrics.RecordErrorByComponent("youtube_search", "upstream")
		c.log.Warn(ctx, "search failed",
			logger.String("query", s.Query),
			logger.String("channel", s.ChannelFilter),
			logger.Error(err),
		)
		return nil
	case len(videos) == 0:
		metrics.RecordSearchCall(string(s.Tier), metrics.OutcomeEmpty, latency)
	default:
		metrics.RecordSearchCall(string(s.Tier), metrics.OutcomeOK, latency)
	}
	c.log.Debug(ctx, "search finished",
		logger.String("query", s.Query),
		logger.Int("results", len(videos)),
	)
	return videos
}

// SearchStrict runs one strategy and reports failures to the caller.
func (c *Client) SearchStrict(ctx context.Context, s model.SearchStrategy) ([]model.VideoCandidate, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.searchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+searchParams(c.apiKey, s).Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%w: search returned %d", ErrUpstreamStatus, resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]model.VideoCandidate, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.ID.VideoID == "" {
			continue
		}
		sn := item.Snippet
		out = append(out, model.VideoCandidate{
			ID:           item.ID.VideoID,
			Title:        html.UnescapeString(sn.Title),
			Description:  html.UnescapeString(sn.Description),
			ChannelTitle: html.UnescapeString(sn.ChannelTitle),
			ThumbnailURL: thumbnail(sn.Thumbnails),
			PublishedAt:  sn.PublishedAt,
		})
	}
	return out, nil
}

func searchParams(key string, s model.SearchStrategy) url.Values {
	q := s.Query
	if s.ChannelFilter != "" {
		q += " channel:" + s.ChannelFilter
	}
	limit := s.MaxResults
	if limit <= 0 || limit > model.MaxSearchResults {
		limit = model.MaxSearchResults
	}
	order := s.Order
	if order == "" {
		order = model.OrderRelevance
	}

	v := url.Values{}
	v.Set("key", key)
	v.Set("q", q)
	v.Set("part", "snippet")
	v.Set("type", "video")
	v.Set("maxResults", strconv.Itoa(limit))
	v.Set("relevanceLanguage", "en")
	v.Set("safeSearch", "none")
	v.Set("order", string(order))
	if !s.PublishedAfter.IsZero() {
		v.Set("publishedAfter", s.PublishedAfter.UTC().Format(time.RFC3339))
	}
	return v
}

func thumbnail(thumbs map[string]thumb) string {
	for _, size := range []string{"high", "medium", "default"} {
		if t, ok := thumbs[size]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}
