package model

import "time"

// Order is the result ordering requested from the search service.
type Order string

// Supported orderings.
const (
	OrderRelevance Order = "relevance"
	OrderDate      Order = "date"
	OrderViewCount Order = "viewCount"
	OrderRating    Order = "rating"
)

// Tier is the priority attached to a search strategy.
type Tier string

// Priority tiers.
const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// MaxSearchResults is the largest page the search service returns.
const MaxSearchResults = 50

// SearchStrategy describes one independent search request.
type SearchStrategy struct {
	Query          string    `json:"query"`
	ChannelFilter  string    `json:"channelFilter,omitempty"`
	PublishedAfter time.Time `json:"publishedAfter,omitempty"`
	Order          Order     `json:"order"`
	MaxResults     int       `json:"maxResults"`
	Tier           Tier      `json:"tier"`
}

// VideoCandidate is search metadata for one video; identity is ID.
type VideoCandidate struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ChannelTitle string    `json:"channelTitle"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	PublishedAt  time.Time `json:"publishedAt"`
	// Duration is the display length, such as 8:05. Empty when unknown.
	Duration string `json:"duration,omitempty"`
}

// WatchURL is the public page of the video.
func (v VideoCandidate) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// EmbedURL is the embeddable player URL of the video.
func (v VideoCandidate) EmbedURL() string {
	return "https://www.youtube.com/embed/" + v.ID
}

// Transcripts maps video id to plain spoken text. A missing id means no transcript.
type Transcripts map[string]string

// Source is a text field of a candidate a card name can be found in.
type Source string

// Text sources.
const (
	SourceTitle       Source = "title"
	SourceDescription Source = "description"
	SourceTranscript  Source = "transcript"
)

// CardMatch records where one deck card was mentioned.
type CardMatch struct {
	Name    string   `json:"name"`
	Sources []Source `json:"sources"`
}

// ScoredVideo is a candidate with its relevance against a deck.
type ScoredVideo struct {
	Video            VideoCandidate `json:"video"`
	CardsMatched     int            `json:"cardsMatched"`
	Score            float64        `json:"score"`
	MatchedCardNames []string       `json:"matchedCardNames"`
	Matches          []CardMatch    `json:"matches,omitempty"`
}
