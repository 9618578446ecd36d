// Package dedupe merges search results from many strategies into one
// candidate list keyed by video id.
package dedupe

import (
	"strings"

	"github.com/okian/decktube/internal/domain/model"
)

// Deduper records seen video IDs. First writer wins.
type Deduper interface {
	// SeenAndRecord reports whether id was seen and records it if not.
	SeenAndRecord(id string) bool
	Size() int
}

// setDeduper is a plain map. Merging runs after all searches settle, so no lock.
type setDeduper struct {
	seen map[string]struct{}
}

// New creates an empty Deduper sized for hint ids.
func New(hint int) Deduper {
	return &setDeduper{seen: make(map[string]struct{}, max(hint, 0))}
}

func (d *setDeduper) SeenAndRecord(id string) bool {
	if _, ok := d.seen[id]; ok {
		return true
	}
	d.seen[id] = struct{}{}
	return false
}

func (d *setDeduper) Size() int { return len(d.seen) }

// Merge folds batches in order into a list with each id exactly once.
// Candidates with an empty id are dropped.
func Merge(batches ...[]model.VideoCandidate) []model.VideoCandidate {
	total := 0
	for _, b := range batches {
		total += len(b)
	}
	d := New(total)
	out := make([]model.VideoCandidate, 0, total)
	for _, b := range batches {
		for _, v := range b {
			id := strings.TrimSpace(v.ID)
			if id == "" || d.SeenAndRecord(id) {
				continue
			}
			out = append(out, v)
		}
	}
	return out
}
