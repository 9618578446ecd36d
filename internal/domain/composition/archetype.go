package composition

import (
	"slices"

	"github.com/okian/decktube/internal/domain/model"
)

type deckView struct {
	names []string
	cards []model.Card
}

// rule pairs a predicate with the archetype it selects.
type rule struct {
	label string
	match func(deckView) bool
}

// rules are evaluated top-down; the first match wins.
var rules = []rule{
	{Beatdown, func(d deckView) bool {
		for _, n := range d.names {
			if slices.Contains(notBeatdown, n) {
				continue
			}
			if containsAny(n, beatdownContains) || slices.Contains(beatdownExact, n) {
				return true
			}
		}
		return false
	}},
	{Siege, func(d deckView) bool { return countContaining(d.names, siegeContains) > 0 }},
	{Cycle, func(d deckView) bool {
		cheap := 0
		for _, c := range d.cards {
			if c.ElixirCost <= 2 {
				cheap++
			}
		}
		return cheap >= 4
	}},
	{BridgeSpam, func(d deckView) bool { return countContaining(d.names, bridgeContains) > 0 }},
	{Bait, func(d deckView) bool { return countContaining(d.names, baitContains) >= 3 }},
	{Control, func(d deckView) bool { return model.Deck(d.cards).AverageElixir() >= 4.0 }},
}

// Archetype labels a deck with the first matching rule, or Midrange.
func Archetype(cards []model.Card) string {
	view := deckView{cards: cards, names: make([]string, 0, len(cards))}
	for _, c := range cards {
		view.names = append(view.names, normalize(c.Name))
	}
	for _, r := range rules {
		if r.match(view) {
			return r.label
		}
	}
	return Midrange
}
