package api

import (
	"net/http"

	"github.com/okian/decktube/internal/domain/composition"
)

// DeckHandler handles deck analysis requests.
type DeckHandler struct {
	deps CatalogDependencies
}

// NewDeckHandler creates a new deck handler.
func NewDeckHandler(deps CatalogDependencies) *DeckHandler {
	return &DeckHandler{deps: deps}
}

type analyzeResponse struct {
	Composition composition.Result `json:"composition"`
	Archetype   string             `json:"archetype"`
	Counters    []string           `json:"counters"`
	AvgElixir   float64            `json:"avgElixir"`
}

// HandleAnalyze handles POST /api/decks/analyze requests.
func (h *DeckHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	deck, err := resolveDeck(r, h.deps)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	res := composition.Analyze(deck)
	counters := res.Counters
	if counters == nil {
		counters = []string{}
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		Composition: res,
		Archetype:   res.Archetype,
		Counters:    counters,
		AvgElixir:   res.AverageElixir,
	})
}
