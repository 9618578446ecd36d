package clashapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/okian/decktube/internal/domain/model"
)

var tagPattern = regexp.MustCompile(`^[0-9A-Z]{3,15}$`)

// PlayerDeck is the deck a player currently has equipped.
type PlayerDeck struct {
	Cards         []model.Card `json:"cards"`
	AverageElixir float64      `json:"averageElixir"`
}

// Player is a trimmed player profile.
type Player struct {
	Tag          string     `json:"tag"`
	Name         string     `json:"name"`
	Trophies     int        `json:"trophies"`
	BestTrophies int        `json:"bestTrophies"`
	Wins         int        `json:"wins"`
	Losses       int        `json:"losses"`
	Clan         string     `json:"clan,omitempty"`
	CurrentDeck  PlayerDeck `json:"currentDeck"`
}

// NormalizeTag strips the leading '#' and uppercases a player tag.
func NormalizeTag(tag string) (string, error) {
	t := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
	if !tagPattern.MatchString(t) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	return t, nil
}

// Player fetches a profile by tag.
func (c *Client) Player(ctx context.Context, tag string) (Player, error) {
	clean, err := NormalizeTag(tag)
	if err != nil {
		return Player{}, err
	}
	var raw struct {
		Tag          string    `json:"tag"`
		Name         string    `json:"name"`
		Trophies     int       `json:"trophies"`
		BestTrophies int       `json:"bestTrophies"`
		Wins         int       `json:"wins"`
		Losses       int       `json:"losses"`
		CurrentDeck  []apiCard `json:"currentDeck"`
		Clan         *struct {
			Name string `json:"name"`
		} `json:"clan"`
	}
	err = c.getJSON(ctx, c.baseURL+"/players/"+url.PathEscape("#"+clean), true, &raw)
	if errors.Is(err, errNotFound) {
		return Player{}, fmt.Errorf("%w: #%s", ErrPlayerNotFound, clean)
	}
	if err != nil {
		return Player{}, err
	}

	p := Player{
		Tag:          raw.Tag,
		Name:         raw.Name,
		Trophies:     raw.Trophies,
		BestTrophies: raw.BestTrophies,
		Wins:         raw.Wins,
		Losses:       raw.Losses,
	}
	if raw.Clan != nil {
		p.Clan = raw.Clan.Name
	}
	deck := make(model.Deck, 0, len(raw.CurrentDeck))
	for _, card := range raw.CurrentDeck {
		m := card.toModel()
		if m.Rarity == "" {
			m.Rarity = "common"
		}
		deck = append(deck, m)
	}
	p.CurrentDeck = PlayerDeck{Cards: deck, AverageElixir: deck.AverageElixir()}
	return p, nil
}
