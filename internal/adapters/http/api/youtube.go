package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/decktube/internal/domain/model"
)

// maxTranscriptIDs bounds a batch transcript request.
const maxTranscriptIDs = 50

// YouTubeDependencies defines the interface for the search and caption passthroughs.
type YouTubeDependencies interface {
	SearchVideos(ctx context.Context, s model.SearchStrategy) ([]model.VideoCandidate, error)
	Transcript(ctx context.Context, videoID string) (string, error)
	Transcripts(ctx context.Context, videoIDs []string) model.Transcripts
}

// YouTubeHandler handles the YouTube passthrough requests.
type YouTubeHandler struct {
	deps YouTubeDependencies
}

// NewYouTubeHandler creates a new YouTube handler.
func NewYouTubeHandler(deps YouTubeDependencies) *YouTubeHandler {
	return &YouTubeHandler{deps: deps}
}

type searchResponse struct {
	Videos []model.VideoCandidate `json:"videos"`
	Count  int                    `json:"count"`
}

// HandleSearch handles GET /api/youtube/search?q=&maxResults= requests.
func (h *YouTubeHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing q", ErrBadRequest))
		return
	}
	limit := 25
	if raw := q.Get("maxResults"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid maxResults", ErrBadRequest))
			return
		}
		limit = min(n, model.MaxSearchResults)
	}

	videos, err := h.deps.SearchVideos(r.Context(), model.SearchStrategy{
		Query:      query,
		Order:      model.OrderRelevance,
		MaxResults: limit,
		Tier:       model.TierMedium,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, "upstream_error", fmt.Errorf("%w: %w", ErrUpstream, err))
		return
	}
	if videos == nil {
		videos = []model.VideoCandidate{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Videos: videos, Count: len(videos)})
}

type transcriptResponse struct {
	VideoID    string `json:"videoId"`
	Transcript string `json:"transcript"`
}

type transcriptsResponse struct {
	Transcripts model.Transcripts `json:"transcripts"`
	Count       int               `json:"count"`
}

// HandleTranscript handles GET /api/youtube/transcript requests with either
// videoId (single) or videoIds=a,b (batch).
func (h *YouTubeHandler) HandleTranscript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	q := r.URL.Query()

	if raw := q.Get("videoIds"); raw != "" {
		ids := splitIDs(raw)
		if len(ids) == 0 || len(ids) > maxTranscriptIDs {
			writeError(w, http.StatusBadRequest, "bad_request",
				fmt.Errorf("%w: videoIds must hold 1 to %d ids", ErrBadRequest, maxTranscriptIDs))
			return
		}
		ts := h.deps.Transcripts(r.Context(), ids)
		if ts == nil {
			ts = model.Transcripts{}
		}
		writeJSON(w, http.StatusOK, transcriptsResponse{Transcripts: ts, Count: len(ts)})
		return
	}

	id := strings.TrimSpace(q.Get("videoId"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing videoId", ErrBadRequest))
		return
	}
	text, err := h.deps.Transcript(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	writeJSON(w, http.StatusOK, transcriptResponse{VideoID: id, Transcript: text})
}

// splitIDs splits a comma separated list, dropping blanks and repeats.
func splitIDs(raw string) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
