package api

import (
	"net/http"
)

// StatsProvider exposes service counters such as rankings served and saved items.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	statsProvider StatsProvider
}

func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats writes the provider's counters. ?fields=a,b narrows the
// response to those keys; unknown keys are left out.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	stats := map[string]interface{}{}
	if h.statsProvider != nil {
		stats = h.statsProvider.GetStats()
	}
	if fields := splitIDs(r.URL.Query().Get("fields")); len(fields) > 0 {
		picked := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			if v, ok := stats[f]; ok {
				picked[f] = v
			}
		}
		stats = picked
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, stats)
}
