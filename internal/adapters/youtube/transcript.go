package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/okian/decktube/internal/domain/model"
	"github.com/okian/decktube/pkg/logger"
	"github.com/okian/decktube/pkg/metrics"
)

// FetchTranscripts retrieves transcripts in batches. Ids inside a batch are
// fetched concurrently; batches run one after another with a pause between
// them. Ids that fail are absent from the result.
func (c *Client) FetchTranscripts(ctx context.Context, ids []string) model.Transcripts {
	out := make(model.Transcripts, len(ids))
	for start := 0; start < len(ids); start += c.batchSize {
		if start > 0 && !c.pause(ctx) {
			break
		}
		batch := ids[start:min(start+c.batchSize, len(ids))]
		texts := make([]string, len(batch))

		var g errgroup.Group
		for i, id := range batch {
			g.Go(func() error {
				text, err := c.FetchTranscript(ctx, id)
				if err != nil {
					metrics.RecordTranscriptFetch(metrics.OutcomeEmpty)
					c.log.Debug(ctx, "transcript unavailable", logger.String("video_id", id), logger.Error(err))
					return nil
				}
				metrics.RecordTranscriptFetch(metrics.OutcomeOK)
				texts[i] = text
				return nil
			})
		}
		_ = g.Wait()
		metrics.RecordTranscriptBatch()

		for i, id := range batch {
			if texts[i] != "" {
				out[id] = texts[i]
			}
		}
	}
	return out
}

func (c *Client) pause(ctx context.Context) bool {
	if c.batchDelay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(c.batchDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// FetchTranscript tries each configured language and returns the first
// caption text longer than the acceptance threshold.
func (c *Client) FetchTranscript(ctx context.Context, videoID string) (string, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return "", fmt.Errorf("%w: empty video id", ErrNoTranscript)
	}
	var lastErr error
	for _, lang := range c.languages {
		text, err := c.fetchCaptions(ctx, videoID, lang)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if len(text) > minTranscriptLen {
			return text, nil
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrNoTranscript, videoID, lastErr)
	}
	return "", fmt.Errorf("%w: %s", ErrNoTranscript, videoID)
}

func (c *Client) fetchCaptions(ctx context.Context, videoID, lang string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.transcriptTimeout)
	defer cancel()

	v := url.Values{}
	v.Set("lang", lang)
	v.Set("v", videoID)
	v.Set("fmt", "srv3")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.timedTextURL+"?"+v.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build caption request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("caption request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: captions returned %d", ErrUpstreamStatus, resp.StatusCode)
	}
	return captionText(io.LimitReader(resp.Body, maxBodyBytes))
}

// captionText strips caption markup, decodes entities and collapses whitespace.
func captionText(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	var parts []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", fmt.Errorf("parse captions: %w", err)
			}
			return strings.Join(strings.Fields(strings.Join(parts, " ")), " "), nil
		case html.TextToken:
			if t := strings.TrimSpace(string(z.Text())); t != "" {
				parts = append(parts, t)
			}
		}
	}
}
