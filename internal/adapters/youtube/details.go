package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// maxDetailIDs is the id limit of one videos.list call.
const maxDetailIDs = 50

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

type detailsResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// Durations looks up the length of each video. Ids the API does not return,
// or whose duration does not parse, are absent from the map.
func (c *Client) Durations(ctx context.Context, videoIDs []string) (map[string]time.Duration, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	out := make(map[string]time.Duration, len(videoIDs))
	for start := 0; start < len(videoIDs); start += maxDetailIDs {
		end := min(start+maxDetailIDs, len(videoIDs))
		if err := c.durationsPage(ctx, videoIDs[start:end], out); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (c *Client) durationsPage(ctx context.Context, ids []string, out map[string]time.Duration) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.searchTimeout)
	defer cancel()

	v := url.Values{}
	v.Set("key", c.apiKey)
	v.Set("part", "contentDetails")
	v.Set("id", strings.Join(ids, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos?"+v.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build videos request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("videos request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fmt.Errorf("%w: videos returned %d", ErrUpstreamStatus, resp.StatusCode)
	}
	var payload detailsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return fmt.Errorf("decode videos response: %w", err)
	}
	for _, item := range payload.Items {
		d, err := ParseDuration(item.ContentDetails.Duration)
		if err != nil || item.ID == "" {
			continue
		}
		out[item.ID] = d
	}
	return nil
}

// ParseDuration reads the ISO 8601 durations the Data API reports, such as
// PT1H2M3S or P1DT5M.
func ParseDuration(s string) (time.Duration, error) {
	t := strings.TrimSpace(s)
	m := isoDuration.FindStringSubmatch(t)
	if m == nil || t == "P" || t == "PT" {
		return 0, fmt.Errorf("%w: %q", ErrBadDuration, s)
	}
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadDuration, s)
		}
		d += time.Duration(n) * unit
	}
	return d, nil
}

// FormatDuration renders d as m:ss, or h:mm:ss from an hour up.
func FormatDuration(d time.Duration) string {
	total := int(d.Round(time.Second) / time.Second)
	h, m, s := total/3600, total%3600/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
