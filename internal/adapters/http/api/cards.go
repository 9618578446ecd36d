package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/decktube/internal/adapters/clashapi"
	"github.com/okian/decktube/internal/domain/catalog"
	"github.com/okian/decktube/internal/domain/model"
)

// CatalogDependencies defines the interface for card catalog access.
type CatalogDependencies interface {
	Catalog(ctx context.Context) (*catalog.Catalog, error)
}

// PlayerDependencies defines the interface for player lookups.
type PlayerDependencies interface {
	Player(ctx context.Context, tag string) (clashapi.Player, error)
}

// CardsHandler handles card catalog requests.
type CardsHandler struct {
	deps CatalogDependencies
}

// NewCardsHandler creates a new cards handler.
func NewCardsHandler(deps CatalogDependencies) *CardsHandler {
	return &CardsHandler{deps: deps}
}

type cardsResponse struct {
	Cards []model.Card `json:"cards"`
	Count int          `json:"count"`
}

// HandleGetCards handles GET /api/cards requests.
func (h *CardsHandler) HandleGetCards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	cat, err := h.deps.Catalog(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	cards := cat.Cards()
	writeJSON(w, http.StatusOK, cardsResponse{Cards: cards, Count: len(cards)})
}

// PlayerHandler handles player profile requests.
type PlayerHandler struct {
	deps PlayerDependencies
}

// NewPlayerHandler creates a new player handler.
func NewPlayerHandler(deps PlayerDependencies) *PlayerHandler {
	return &PlayerHandler{deps: deps}
}

type playerResponse struct {
	Player clashapi.Player `json:"player"`
}

// HandleGetPlayer handles GET /api/player?tag= requests.
func (h *PlayerHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	tag := strings.TrimSpace(r.URL.Query().Get("tag"))
	if tag == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	p, err := h.deps.Player(r.Context(), tag)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playerResponse{Player: p})
}
