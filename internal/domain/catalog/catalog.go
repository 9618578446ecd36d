// Package catalog normalizes the external card list into lookups used by the
// ranking pipeline and the deck endpoints.
package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/okian/decktube/internal/domain/model"
)

// Catalog is an immutable index of base cards and their evolution variants.
type Catalog struct {
	cards  []model.Card
	byID   map[int]model.Card
	byName map[string]model.Card
}

// New builds a Catalog from base cards. Cards with an evolution icon get a
// derived evolution variant. Later duplicates of an id are ignored.
func New(base []model.Card) *Catalog {
	c := &Catalog{
		cards:  make([]model.Card, 0, len(base)*2),
		byID:   make(map[int]model.Card, len(base)*2),
		byName: make(map[string]model.Card, len(base)*2),
	}
	for _, card := range base {
		if card.Name == "" {
			continue
		}
		c.add(card)
		if card.EvolutionIconURL != "" {
			c.add(card.Evolution())
		}
	}
	slices.SortStableFunc(c.cards, func(a, b model.Card) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return c
}

func (c *Catalog) add(card model.Card) {
	if _, dup := c.byID[card.ID]; dup {
		return
	}
	c.cards = append(c.cards, card)
	c.byID[card.ID] = card
	c.byName[nameKey(card.Name)] = card
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Cards returns all cards ordered by id. The slice is a copy.
func (c *Catalog) Cards() []model.Card {
	return slices.Clone(c.cards)
}

// Len returns the number of cards including evolution variants.
func (c *Catalog) Len() int { return len(c.cards) }

// ByID looks a card up by id.
func (c *Catalog) ByID(id int) (model.Card, bool) {
	if c == nil {
		return model.Card{}, false
	}
	card, ok := c.byID[id]
	return card, ok
}

// ByName looks a card up by case-insensitive name.
func (c *Catalog) ByName(name string) (model.Card, bool) {
	if c == nil {
		return model.Card{}, false
	}
	card, ok := c.byName[nameKey(name)]
	return card, ok
}

// Resolve turns request references into a deck. Known ids take catalog data;
// unknown ids are accepted only when the reference carries a name and cost.
// A nil Catalog resolves from the references alone. The result is not
// validated as a deck.
func (c *Catalog) Resolve(refs []model.CardRef) (model.Deck, error) {
	deck := make(model.Deck, 0, len(refs))
	for _, ref := range refs {
		if card, ok := c.ByID(ref.ID); ok {
			deck = append(deck, card)
			continue
		}
		if ref.Name == "" || ref.ElixirCost == nil {
			return nil, fmt.Errorf("%w: id %d", ErrUnknownCard, ref.ID)
		}
		deck = append(deck, model.Card{
			ID:         ref.ID,
			Name:       ref.Name,
			ElixirCost: *ref.ElixirCost,
			Rarity:     ref.Rarity,
		})
	}
	return deck, nil
}

// ResolveNames turns card names into a deck.
func (c *Catalog) ResolveNames(names []string) (model.Deck, error) {
	deck := make(model.Deck, 0, len(names))
	for _, name := range names {
		card, ok := c.ByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCard, name)
		}
		deck = append(deck, card)
	}
	return deck, nil
}
