// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// DeckSize is the number of cards in a playable deck.
const DeckSize = 8

// Evolution variants are derived cards with a synthesized id and a name marker.
const (
	EvolutionIDOffset = 10_000_000
	EvolutionSuffix   = " (Evolution)"
)

// Validation errors for decks.
var (
	ErrDeckSize      = errors.New("deck must contain exactly 8 cards")
	ErrDuplicateCard = errors.New("deck contains a duplicate card")
	ErrEmptyCardName = errors.New("deck contains a card without a name")
)

// Card is immutable reference data from the card catalog.
type Card struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	ElixirCost float64 `json:"elixirCost"`
	Rarity     string  `json:"rarity,omitempty"`
	IconURL    string  `json:"iconUrl,omitempty"`
	// EvolutionIconURL is set on base cards that have an evolution.
	EvolutionIconURL string `json:"evolutionIconUrl,omitempty"`
}

// IsEvolution reports whether c is an evolution variant. The name marker
// decides, so client-supplied cards with ids unknown to the catalog count too.
func (c Card) IsEvolution() bool {
	return strings.HasSuffix(c.Name, EvolutionSuffix)
}

// BareName is the card name with the evolution marker removed.
func (c Card) BareName() string {
	return BareName(c.Name)
}

// Evolution returns the derived evolution variant of a base card.
func (c Card) Evolution() Card {
	return Card{
		ID:         c.ID + EvolutionIDOffset,
		Name:       c.Name + EvolutionSuffix,
		ElixirCost: c.ElixirCost,
		Rarity:     c.Rarity,
		IconURL:    c.EvolutionIconURL,
	}
}

// BareName strips the evolution marker from a card name.
func BareName(name string) string {
	return strings.TrimSpace(strings.TrimSuffix(name, EvolutionSuffix))
}

// Deck is an ordered selection of exactly eight distinct cards.
type Deck []Card

// Validate enforces the deck selection invariant.
func (d Deck) Validate() error {
	if len(d) != DeckSize {
		return fmt.Errorf("%w: got %d", ErrDeckSize, len(d))
	}
	seen := make(map[int]struct{}, len(d))
	for i, c := range d {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: position %d (id %d)", ErrEmptyCardName, i, c.ID)
		}
		if _, ok := seen[c.ID]; ok {
			return fmt.Errorf("%w: id %d", ErrDuplicateCard, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// HasEvolution reports whether any card in the deck is an evolution variant.
func (d Deck) HasEvolution() bool {
	for _, c := range d {
		if c.IsEvolution() {
			return true
		}
	}
	return false
}

// BareNames returns the first n card names with evolution markers removed.
// n <= 0 or n > len(d) returns all names.
func (d Deck) BareNames(n int) []string {
	if n <= 0 || n > len(d) {
		n = len(d)
	}
	out := make([]string, 0, n)
	for _, c := range d[:n] {
		out = append(out, c.BareName())
	}
	return out
}

// AverageElixir is the mean elixir cost rounded to one decimal.
func (d Deck) AverageElixir() float64 {
	if len(d) == 0 {
		return 0
	}
	var total float64
	for _, c := range d {
		total += c.ElixirCost
	}
	return roundTenth(total / float64(len(d)))
}

func roundTenth(v float64) float64 {
	if v < 0 {
		return -roundTenth(-v)
	}
	return float64(int64(v*10+0.5)) / 10
}

// CardRef identifies a card in a request; missing fields are resolved from the catalog.
type CardRef struct {
	ID         int      `json:"id"`
	Name       string   `json:"name,omitempty"`
	ElixirCost *float64 `json:"elixirCost,omitempty"`
	Rarity     string   `json:"rarity,omitempty"`
}
