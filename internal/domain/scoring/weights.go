package scoring

import "time"

// RecencyTier adjusts the score of videos by age. Younger tiers use MaxAge,
// older tiers use MinAge; exactly one of them is set.
type RecencyTier struct {
	MaxAge Age
	MinAge Age
	Bonus  float64
}

// Age is a calendar offset applied with time.AddDate.
type Age struct {
	Years, Months int
}

func (a Age) before(now time.Time) time.Time {
	return now.AddDate(-a.Years, -a.Months, 0)
}

func (a Age) zero() bool { return a.Years == 0 && a.Months == 0 }

// KeywordBonus rewards a word in the title.
type KeywordBonus struct {
	Word  string
	Bonus float64
}

// Weights are the tunable constants of the relevance score.
type Weights struct {
	// Base is keyed by the number of matched deck cards.
	Base              map[int]float64
	TitlePerCard      float64
	TranscriptPerCard float64
	TrustedChannel    float64
	Evolution         float64
	// Recency tiers are evaluated in order; the first match applies.
	Recency []RecencyTier
	// YearBonus[i] is awarded when the title mentions the year i years ago.
	YearBonus []float64
	Keywords  []KeywordBonus
	// GameKeywords gate candidates before scoring.
	GameKeywords []string
}

// DefaultWeights returns the stock scoring constants.
func DefaultWeights() Weights {
	return Weights{
		Base:              map[int]float64{8: 1000, 7: 500, 6: 250, 5: 100, 4: 50, 3: 25},
		TitlePerCard:      20,
		TranscriptPerCard: 30,
		TrustedChannel:    50,
		Evolution:         15,
		Recency: []RecencyTier{
			{MaxAge: Age{Months: 3}, Bonus: 20},
			{MaxAge: Age{Months: 6}, Bonus: 10},
			{MaxAge: Age{Years: 1}, Bonus: 5},
			{MinAge: Age{Years: 3}, Bonus: -10},
			{MinAge: Age{Years: 2}, Bonus: -5},
		},
		YearBonus: []float64{15, 10, 5},
		Keywords: []KeywordBonus{
			{Word: "guide", Bonus: 10},
			{Word: "deck", Bonus: 5},
			{Word: "best", Bonus: 5},
			{Word: "meta", Bonus: 5},
			{Word: "strategy", Bonus: 5},
		},
		GameKeywords: []string{"clash royale", "clash", "cr deck"},
	}
}

func (w Weights) recency(published, now time.Time) float64 {
	if published.IsZero() {
		return 0
	}
	for _, t := range w.Recency {
		switch {
		case !t.MaxAge.zero() && published.After(t.MaxAge.before(now)):
			return t.Bonus
		case !t.MinAge.zero() && published.Before(t.MinAge.before(now)):
			return t.Bonus
		}
	}
	return 0
}
