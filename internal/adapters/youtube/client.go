// Package youtube talks to the YouTube Data API search endpoint and the
// timedtext caption endpoint.
package youtube

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/decktube/pkg/logger"
)

// Defaults mirror the public service limits.
const (
	DefaultBaseURL           = "https://www.googleapis.com/youtube/v3"
	DefaultTimedTextURL      = "https://www.youtube.com/api/timedtext"
	DefaultSearchTimeout     = 8 * time.Second
	DefaultTranscriptTimeout = 5 * time.Second
	DefaultBatchSize         = 5
	DefaultBatchDelay        = 200 * time.Millisecond
	DefaultRequestsPerSecond = 20

	// minTranscriptLen is the shortest parsed caption text accepted.
	minTranscriptLen = 50
	maxBodyBytes     = 4 << 20
)

// DefaultLanguages are tried in order for every transcript.
var DefaultLanguages = []string{"en", "en-US", "en-GB"}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the Data API key.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithBaseURL overrides the Data API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithTimedTextURL overrides the caption endpoint.
func WithTimedTextURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.timedTextURL = u
		}
	}
}

// WithTimeouts sets per-call timeouts for searches and caption requests.
func WithTimeouts(search, transcript time.Duration) Option {
	return func(c *Client) {
		if search > 0 {
			c.searchTimeout = search
		}
		if transcript > 0 {
			c.transcriptTimeout = transcript
		}
	}
}

// WithRateLimit sets the shared request rate for all outbound calls.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithBatching sets the transcript batch size and the pause between batches.
func WithBatching(size int, delay time.Duration) Option {
	return func(c *Client) {
		if size > 0 {
			c.batchSize = size
		}
		if delay >= 0 {
			c.batchDelay = delay
		}
	}
}

// WithLanguages sets the caption language codes tried per video.
func WithLanguages(langs []string) Option {
	return func(c *Client) {
		if len(langs) > 0 {
			c.languages = append([]string(nil), langs...)
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
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

// Client implements video search and transcript retrieval.
// It is safe for concurrent use.
type Client struct {
	http              *http.Client
	limiter           *rate.Limiter
	log               logger.Logger
	apiKey            string
	baseURL           string
	timedTextURL      string
	searchTimeout     time.Duration
	transcriptTimeout time.Duration
	batchSize         int
	batchDelay        time.Duration
	languages         []string
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		http:              &http.Client{},
		limiter:           rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		baseURL:           DefaultBaseURL,
		timedTextURL:      DefaultTimedTextURL,
		searchTimeout:     DefaultSearchTimeout,
		transcriptTimeout: DefaultTranscriptTimeout,
		batchSize:         DefaultBatchSize,
		batchDelay:        DefaultBatchDelay,
		languages:         append([]string(nil), DefaultLanguages...),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("youtube")
	}
	return c
}
