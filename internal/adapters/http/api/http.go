// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/decktube/internal/adapters/clashapi"
	"github.com/okian/decktube/internal/adapters/repository"
	"github.com/okian/decktube/internal/domain/catalog"
	"github.com/okian/decktube/internal/domain/model"
	"github.com/okian/decktube/internal/domain/ranking"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CatalogDependencies
	PlayerDependencies
	MetaDependencies
	VideoDependencies
	YouTubeDependencies
	SavedDependencies
	ProfileDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	cardsHandler   *CardsHandler
	playerHandler  *PlayerHandler
	metaHandler    *MetaHandler
	deckHandler    *DeckHandler
	videoHandler   *VideoHandler
	youtubeHandler *YouTubeHandler
	savedHandler   *SavedHandler
	profileHandler *ProfileHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		cardsHandler:   NewCardsHandler(deps),
		playerHandler:  NewPlayerHandler(deps),
		metaHandler:    NewMetaHandler(deps),
		deckHandler:    NewDeckHandler(deps),
		videoHandler:   NewVideoHandler(deps),
		youtubeHandler: NewYouTubeHandler(deps),
		savedHandler:   NewSavedHandler(deps),
		profileHandler: NewProfileHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("/api/cards", MetricsMiddleware(s.cardsHandler.HandleGetCards, "cards"))
	mux.HandleFunc("/api/player", MetricsMiddleware(s.playerHandler.HandleGetPlayer, "player"))
	mux.HandleFunc("/api/cards/stats", MetricsMiddleware(s.metaHandler.HandleCardStats, "cards_stats"))
	mux.HandleFunc("/api/decks/top", MetricsMiddleware(s.metaHandler.HandleTopDecks, "decks_top"))
	mux.HandleFunc("/api/decks/meta", MetricsMiddleware(s.metaHandler.HandleMetaDecks, "decks_meta"))
	mux.HandleFunc("/api/decks/search", MetricsMiddleware(s.metaHandler.HandleSearchDecks, "decks_search"))
	mux.HandleFunc("/api/challenges", MetricsMiddleware(s.metaHandler.HandleChallenges, "challenges"))
	mux.HandleFunc("/api/tournaments", MetricsMiddleware(s.metaHandler.HandleTournaments, "tournaments"))
	mux.HandleFunc("/api/decks/analyze", MetricsMiddleware(s.deckHandler.HandleAnalyze, "decks_analyze"))
	mux.HandleFunc("/api/videos/rank", MetricsMiddleware(s.videoHandler.HandleRank, "videos_rank"))
	mux.HandleFunc("/api/youtube/search", MetricsMiddleware(s.youtubeHandler.HandleSearch, "youtube_search"))
	mux.HandleFunc("/api/youtube/transcript", MetricsMiddleware(s.youtubeHandler.HandleTranscript, "youtube_transcript"))

	mux.HandleFunc("/api/profile", MetricsMiddleware(s.profileHandler.HandleProfile, "profile"))
	mux.HandleFunc("/api/saved/decks", MetricsMiddleware(s.savedHandler.HandleDecks, "saved_decks"))
	mux.HandleFunc("/api/saved/decks/", MetricsMiddleware(s.savedHandler.HandleDeleteDeck, "saved_decks"))
	mux.HandleFunc("/api/saved/videos", MetricsMiddleware(s.savedHandler.HandleVideos, "saved_videos"))
	mux.HandleFunc("/api/saved/videos/", MetricsMiddleware(s.savedHandler.HandleDeleteVideo, "saved_videos"))
}

// deckRequest mirrors the OpenAPI schema shared by deck endpoints.
type deckRequest struct {
	Cards []model.CardRef `json:"cards"`
}

func (d deckRequest) validate() error {
	if len(d.Cards) != model.DeckSize {
		return fmt.Errorf("%w: deck must contain exactly %d cards, got %d", ErrBadRequest, model.DeckSize, len(d.Cards))
	}
	return nil
}

// resolveDeck decodes a deck request and resolves it against the catalog.
func resolveDeck(r *http.Request, deps CatalogDependencies) (model.Deck, error) {
	var req deckRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	return resolveCards(r.Context(), deps, req.Cards)
}

// resolveCards fills card data from the catalog. Without a catalog, cards that
// carry their own name and cost still resolve.
func resolveCards(ctx context.Context, deps CatalogDependencies, refs []model.CardRef) (model.Deck, error) {
	cat, catErr := deps.Catalog(ctx)
	deck, err := cat.Resolve(refs)
	if err != nil {
		if catErr != nil {
			return nil, fmt.Errorf("%w (catalog unavailable: %v)", err, catErr)
		}
		return nil, err
	}
	if err := deck.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return deck, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %w", ErrBadRequest, err)
	}
	return nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func methodNotAllowed(w http.ResponseWriter, allow ...string) {
	for _, m := range allow {
		w.Header().Add("Allow", m)
	}
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
}

// writeDomainError translates errors from the domain and adapters to a status.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ranking.ErrInvalidDeck),
		errors.Is(err, model.ErrDeckSize),
		errors.Is(err, model.ErrDuplicateCard),
		errors.Is(err, catalog.ErrUnknownCard),
		errors.Is(err, clashapi.ErrInvalidTag),
		errors.Is(err, clashapi.ErrInvalidQuery),
		errors.Is(err, repository.ErrInvalidItem):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrUnauthorized), errors.Is(err, repository.ErrNoUser):
		writeError(w, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, clashapi.ErrPlayerNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrAlreadySaved):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, ErrStorageDisabled), errors.Is(err, clashapi.ErrFeedDisabled):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	case errors.Is(err, clashapi.ErrUpstreamStatus),
		errors.Is(err, clashapi.ErrNoCards),
		errors.Is(err, catalog.ErrEmptyCatalog),
		errors.Is(err, ErrUpstream):
		writeError(w, http.StatusBadGateway, "upstream_error", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
