package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/decktube/internal/adapters/repository"
	"github.com/okian/decktube/internal/domain/composition"
	"github.com/okian/decktube/internal/domain/model"
)

// UserIDHeader carries the caller identity set by the upstream gateway.
const UserIDHeader = "X-User-ID"

// SavedDependencies defines the interface for saved decks and videos.
type SavedDependencies interface {
	CatalogDependencies

	SaveDeck(ctx context.Context, d repository.SavedDeck) (repository.SavedDeck, error)
	ListDecks(ctx context.Context, userID string) ([]repository.SavedDeck, error)
	DeleteDeck(ctx context.Context, userID, id string) error

	SaveVideo(ctx context.Context, v repository.SavedVideo) (repository.SavedVideo, error)
	ListVideos(ctx context.Context, userID string) ([]repository.SavedVideo, error)
	DeleteVideo(ctx context.Context, userID, id string) error
}

// SavedHandler handles saved item requests.
type SavedHandler struct {
	deps SavedDependencies
}

// NewSavedHandler creates a new saved items handler.
func NewSavedHandler(deps SavedDependencies) *SavedHandler {
	return &SavedHandler{deps: deps}
}

type saveDeckRequest struct {
	Name  string          `json:"name"`
	Cards []model.CardRef `json:"cards"`
}

type saveVideoRequest struct {
	VideoID      string  `json:"videoId"`
	Title        string  `json:"title"`
	ChannelTitle string  `json:"channelTitle"`
	ThumbnailURL string  `json:"thumbnailUrl"`
	DeckID       string  `json:"deckId"`
	CardsMatched int     `json:"cardsMatched"`
	Score        float64 `json:"score"`
}

type savedDecksResponse struct {
	Decks []repository.SavedDeck `json:"decks"`
	Count int                    `json:"count"`
}

type savedVideosResponse struct {
	Videos []repository.SavedVideo `json:"videos"`
	Count  int                     `json:"count"`
}

func userID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if id == "" {
		return "", fmt.Errorf("%w: %s header is required", ErrUnauthorized, UserIDHeader)
	}
	return id, nil
}

// HandleDecks handles GET and POST /api/saved/decks requests.
func (h *SavedHandler) HandleDecks(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	switch r.Method {
	case http.MethodGet:
		decks, err := h.deps.ListDecks(r.Context(), uid)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if decks == nil {
			decks = []repository.SavedDeck{}
		}
		writeJSON(w, http.StatusOK, savedDecksResponse{Decks: decks, Count: len(decks)})
	case http.MethodPost:
		h.saveDeck(w, r, uid)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (h *SavedHandler) saveDeck(w http.ResponseWriter, r *http.Request, uid string) {
	var req saveDeckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := (deckRequest{Cards: req.Cards}).validate(); err != nil {
		writeDomainError(w, err)
		return
	}
	deck, err := resolveCards(r.Context(), h.deps, req.Cards)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	comp := composition.Analyze(deck)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = comp.Archetype + " deck"
	}
	saved, err := h.deps.SaveDeck(r.Context(), repository.SavedDeck{
		UserID:    uid,
		Name:      name,
		Cards:     deck,
		Archetype: comp.Archetype,
		AvgElixir: comp.AverageElixir,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// HandleDeleteDeck handles DELETE /api/saved/decks/{id} requests.
func (h *SavedHandler) HandleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	h.handleDelete(w, r, "/api/saved/decks/", h.deps.DeleteDeck)
}

// HandleVideos handles GET and POST /api/saved/videos requests.
func (h *SavedHandler) HandleVideos(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	switch r.Method {
	case http.MethodGet:
		videos, err := h.deps.ListVideos(r.Context(), uid)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if videos == nil {
			videos = []repository.SavedVideo{}
		}
		writeJSON(w, http.StatusOK, savedVideosResponse{Videos: videos, Count: len(videos)})
	case http.MethodPost:
		var req saveVideoRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDomainError(w, err)
			return
		}
		if strings.TrimSpace(req.VideoID) == "" {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing videoId", ErrBadRequest))
			return
		}
		saved, err := h.deps.SaveVideo(r.Context(), repository.SavedVideo{
			UserID:       uid,
			VideoID:      strings.TrimSpace(req.VideoID),
			Title:        req.Title,
			ChannelTitle: req.ChannelTitle,
			ThumbnailURL: req.ThumbnailURL,
			DeckID:       req.DeckID,
			CardsMatched: req.CardsMatched,
			Score:        req.Score,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// HandleDeleteVideo handles DELETE /api/saved/videos/{id} requests.
func (h *SavedHandler) HandleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	h.handleDelete(w, r, "/api/saved/videos/", h.deps.DeleteVideo)
}

func (h *SavedHandler) handleDelete(w http.ResponseWriter, r *http.Request, prefix string,
	del func(ctx context.Context, userID, id string) error,
) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, http.MethodDelete)
		return
	}
	uid, err := userID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := del(r.Context(), uid, id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
