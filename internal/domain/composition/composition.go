// Package composition classifies decks by card role and archetype using
// fixed keyword lists over card names.
package composition

import (
	"strings"

	"github.com/okian/decktube/internal/domain/model"
)

// Archetype labels.
const (
	Beatdown   = "Beatdown"
	Siege      = "Siege"
	Cycle      = "Cycle"
	BridgeSpam = "Bridge Spam"
	Bait       = "Bait"
	Control    = "Control"
	Midrange   = "Midrange"
)

// Counter descriptions.
const (
	CounterGraveyard = "Vulnerable to Graveyard"
	CounterSwarm     = "Weak against swarm cards"
	CounterCycle     = "Vulnerable to cycle decks"
	CounterNoTank    = "No tank - vulnerable to heavy pushes"
)

// Result describes the make-up of a deck.
type Result struct {
	TroopCount        int `json:"troops"`
	SpellCount        int `json:"spells"`
	BuildingCount     int `json:"buildings"`
	WinConditionCount int `json:"winConditions"`
	// SupportCount is troops minus win conditions; negative values are kept.
	SupportCount  int      `json:"supports"`
	AverageElixir float64  `json:"avgElixir"`
	Archetype     string   `json:"archetype"`
	Counters      []string `json:"counters"`
}

// Keyword lists. Entries are matched against lowercased card names.
var (
	buildingContains = []string{"tower", "hut", "collector", "tesla", "cannon", "mortar", "x-bow", "tombstone", "furnace", "goblin cage"}

	// Spells are listed whole: a "ball" substring would match Balloon.
	spellNames = []string{
		"fireball", "arrows", "zap", "rocket", "lightning", "the log", "rage", "freeze",
		"poison", "tornado", "earthquake", "giant snowball", "barbarian barrel",
		"royal delivery", "goblin barrel", "graveyard", "clone", "mirror", "void",
		"goblin curse",
	}

	winConditionContains = []string{
		"giant", "golem", "hog", "balloon", "x-bow", "mortar", "graveyard",
		"three musketeers", "lava hound", "battle ram", "ram rider", "miner",
		"goblin barrel", "wall breakers", "goblin drill",
	}

	tankContains = []string{"giant", "golem", "lava hound", "p.e.k.k.a", "pekka", "mega knight", "goblin drill"}

	beatdownContains = []string{"golem", "lava hound", "electro giant"}
	beatdownExact    = []string{"giant"}
	siegeContains    = []string{"x-bow", "mortar"}
	bridgeContains   = []string{"battle ram", "bandit", "ram rider"}
	baitContains     = []string{"goblin", "skeleton", "princess"}
	notBeatdown      = []string{"ice golem"}
)

// Analyze computes role counts, archetype, and counters for cards.
func Analyze(cards []model.Card) Result {
	res := Result{AverageElixir: model.Deck(cards).AverageElixir()}
	for _, c := range cards {
		name := normalize(c.Name)
		switch {
		case isBuilding(name):
			res.BuildingCount++
		case isSpell(name):
			res.SpellCount++
		default:
			res.TroopCount++
		}
		if containsAny(name, winConditionContains) {
			res.WinConditionCount++
		}
	}
	res.SupportCount = res.TroopCount - res.WinConditionCount
	res.Archetype = Archetype(cards)
	res.Counters = counters(cards, res)
	return res
}

func normalize(name string) string {
	return strings.ToLower(model.BareName(name))
}

func isBuilding(name string) bool {
	return containsAny(name, buildingContains)
}

func isSpell(name string) bool {
	for _, s := range spellNames {
		if name == s {
			return true
		}
	}
	return false
}

func containsAny(name string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}

func countContaining(names []string, keywords []string) int {
	n := 0
	for _, name := range names {
		if containsAny(name, keywords) {
			n++
		}
	}
	return n
}

func counters(cards []model.Card, res Result) []string {
	out := []string{}
	if res.BuildingCount == 0 {
		out = append(out, CounterGraveyard)
	}
	if res.SpellCount < 2 {
		out = append(out, CounterSwarm)
	}
	allHeavy := len(cards) > 0
	hasTank := false
	for _, c := range cards {
		if c.ElixirCost < 3 {
			allHeavy = false
		}
		if containsAny(normalize(c.Name), tankContains) {
			hasTank = true
		}
	}
	if allHeavy {
		out = append(out, CounterCycle)
	}
	if !hasTank {
		out = append(out, CounterNoTank)
	}
	return out
}
