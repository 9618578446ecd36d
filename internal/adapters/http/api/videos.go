package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/decktube/internal/domain/model"
	"github.com/okian/decktube/internal/domain/ranking"
)

// VideoDependencies defines the interface for ranking videos against a deck.
type VideoDependencies interface {
	CatalogDependencies
	RankVideos(ctx context.Context, deck model.Deck) (ranking.Result, error)
}

// VideoHandler handles video ranking requests.
type VideoHandler struct {
	deps VideoDependencies
}

// NewVideoHandler creates a new video handler.
func NewVideoHandler(deps VideoDependencies) *VideoHandler {
	return &VideoHandler{deps: deps}
}

// rankedVideo flattens a scored video for the response body.
type rankedVideo struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	ChannelTitle string            `json:"channelTitle"`
	ThumbnailURL string            `json:"thumbnailUrl"`
	PublishedAt  time.Time         `json:"publishedAt"`
	Duration     string            `json:"duration,omitempty"`
	URL          string            `json:"url"`
	EmbedURL     string            `json:"embedUrl"`
	CardsMatched int               `json:"cardsMatched"`
	Score        float64           `json:"score"`
	MatchedCards []string          `json:"matchedCards"`
	Matches      []model.CardMatch `json:"matches,omitempty"`
}

type rankStats struct {
	RequestID   string `json:"requestId"`
	Strategies  int    `json:"strategies"`
	Candidates  int    `json:"candidates"`
	Transcripts int    `json:"transcripts"`
	TookMs      int64  `json:"tookMs"`
}

type rankResponse struct {
	Videos  []rankedVideo `json:"videos"`
	Count   int           `json:"count"`
	NoMatch bool          `json:"noMatch"`
	Message string        `json:"message,omitempty"`
	Stats   rankStats     `json:"stats"`
}

// HandleRank handles POST /api/videos/rank requests.
func (h *VideoHandler) HandleRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	deck, err := resolveDeck(r, h.deps)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	res, err := h.deps.RankVideos(r.Context(), deck)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRankResponse(res))
}

func newRankResponse(res ranking.Result) rankResponse {
	videos := make([]rankedVideo, 0, len(res.Videos))
	for _, sv := range res.Videos {
		v := sv.Video
		videos = append(videos, rankedVideo{
			ID:           v.ID,
			Title:        v.Title,
			Description:  v.Description,
			ChannelTitle: v.ChannelTitle,
			ThumbnailURL: v.ThumbnailURL,
			PublishedAt:  v.PublishedAt,
			Duration:     v.Duration,
			URL:          v.WatchURL(),
			EmbedURL:     v.EmbedURL(),
			CardsMatched: sv.CardsMatched,
			Score:        sv.Score,
			MatchedCards: sv.MatchedCardNames,
			Matches:      sv.Matches,
		})
	}
	return rankResponse{
		Videos:  videos,
		Count:   len(videos),
		NoMatch: res.NoMatch,
		Message: res.Message,
		Stats: rankStats{
			RequestID:   res.RequestID,
			Strategies:  res.Strategies,
			Candidates:  res.Candidates,
			Transcripts: res.Transcripts,
			TookMs:      res.Took.Milliseconds(),
		},
	}
}
