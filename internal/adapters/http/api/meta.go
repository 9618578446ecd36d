package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/decktube/internal/adapters/clashapi"
)

// MetaDependencies defines the interface for the deck usage and event feeds.
type MetaDependencies interface {
	TopDecks(ctx context.Context, limit int) ([]clashapi.TopDeck, error)
	MetaDecks(ctx context.Context, minTrophies int) ([]clashapi.TopDeck, error)
	SearchDecks(ctx context.Context, cardIDs []int) ([]clashapi.TopDeck, error)
	CardStats(ctx context.Context) ([]json.RawMessage, error)
	Challenges(ctx context.Context) ([]json.RawMessage, error)
	Tournaments(ctx context.Context) ([]json.RawMessage, error)
}

// MetaHandler serves the deck usage and event feeds.
type MetaHandler struct {
	deps MetaDependencies
}

// NewMetaHandler creates a new feed handler.
func NewMetaHandler(deps MetaDependencies) *MetaHandler {
	return &MetaHandler{deps: deps}
}

type decksResponse struct {
	Decks []clashapi.TopDeck `json:"decks"`
	Count int                `json:"count"`
}

// HandleTopDecks handles GET /api/decks/top?limit= requests.
func (h *MetaHandler) HandleTopDecks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	limit, err := positiveParam(r, "limit", clashapi.DefaultTopDecks)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	decks, err := h.deps.TopDecks(r.Context(), limit)
	writeDecks(w, decks, err)
}

// HandleMetaDecks handles GET /api/decks/meta?minTrophies= requests.
func (h *MetaHandler) HandleMetaDecks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	floor, err := positiveParam(r, "minTrophies", clashapi.DefaultMinTrophies)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	decks, err := h.deps.MetaDecks(r.Context(), floor)
	writeDecks(w, decks, err)
}

// HandleSearchDecks handles GET /api/decks/search?cards=id,id requests.
func (h *MetaHandler) HandleSearchDecks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	raw := splitIDs(r.URL.Query().Get("cards"))
	if len(raw) == 0 {
		writeDomainError(w, fmt.Errorf("%w: missing cards", ErrBadRequest))
		return
	}
	ids := make([]int, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.Atoi(s)
		if err != nil {
			writeDomainError(w, fmt.Errorf("%w: card id %q", ErrBadRequest, s))
			return
		}
		ids = append(ids, id)
	}
	decks, err := h.deps.SearchDecks(r.Context(), ids)
	writeDecks(w, decks, err)
}

// HandleCardStats handles GET /api/cards/stats requests.
func (h *MetaHandler) HandleCardStats(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, "stats", h.deps.CardStats)
}

// HandleChallenges handles GET /api/challenges requests.
func (h *MetaHandler) HandleChallenges(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, "challenges", h.deps.Challenges)
}

// HandleTournaments handles GET /api/tournaments requests.
func (h *MetaHandler) HandleTournaments(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, "tournaments", h.deps.Tournaments)
}

func (h *MetaHandler) serveList(w http.ResponseWriter, r *http.Request, key string,
	fetch func(context.Context) ([]json.RawMessage, error),
) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	items, err := fetch(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{key: items, "count": len(items)})
}

func writeDecks(w http.ResponseWriter, decks []clashapi.TopDeck, err error) {
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if decks == nil {
		decks = []clashapi.TopDeck{}
	}
	writeJSON(w, http.StatusOK, decksResponse{Decks: decks, Count: len(decks)})
}

// positiveParam reads an optional positive integer query parameter.
func positiveParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", ErrBadRequest, name)
	}
	return n, nil
}
