// Package scoring ranks video candidates by how thoroughly they cover a deck.
package scoring

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/okian/decktube/internal/domain/model"
)

// Default filter limits.
const (
	DefaultMaxResults      = 24
	DefaultMinCardsMatched = 3
	minWordLen             = 3
)

// Option applies a configuration option to the RelevanceScorer.
type Option func(*RelevanceScorer)

// WithWeights replaces the scoring constants.
func WithWeights(w Weights) Option {
	return func(s *RelevanceScorer) {
		s.weights = w
	}
}

// WithTrustedChannels sets the channel titles that earn the trusted bonus.
func WithTrustedChannels(channels []string) Option {
	return func(s *RelevanceScorer) {
		s.trusted = make(map[string]struct{}, len(channels))
		for _, ch := range channels {
			s.trusted[strings.ToLower(strings.TrimSpace(ch))] = struct{}{}
		}
	}
}

// WithMaxResults caps the ranked list.
func WithMaxResults(n int) Option {
	return func(s *RelevanceScorer) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithMinCardsMatched sets the minimum coverage a video needs to be kept.
func WithMinCardsMatched(n int) Option {
	return func(s *RelevanceScorer) {
		if n > 0 {
			s.minMatched = n
		}
	}
}

// WithClock overrides the reference time used for recency and year bonuses.
func WithClock(now func() time.Time) Option {
	return func(s *RelevanceScorer) {
		if now != nil {
			s.now = now
		}
	}
}

// RelevanceScorer scores candidates against a deck. It is stateless between calls.
type RelevanceScorer struct {
	weights    Weights
	trusted    map[string]struct{}
	maxResults int
	minMatched int
	now        func() time.Time
}

// NewRelevanceScorer creates a scorer with default weights.
func NewRelevanceScorer(opts ...Option) *RelevanceScorer {
	s := &RelevanceScorer{
		weights:    DefaultWeights(),
		trusted:    map[string]struct{}{},
		maxResults: DefaultMaxResults,
		minMatched: DefaultMinCardsMatched,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rank scores every candidate, drops weak matches, sorts and truncates.
func (s *RelevanceScorer) Rank(deck model.Deck, candidates []model.VideoCandidate, transcripts model.Transcripts) []model.ScoredVideo {
	now := s.now()
	out := make([]model.ScoredVideo, 0, len(candidates))
	for _, v := range candidates {
		if sv, ok := s.score(deck, v, transcripts[v.ID], now); ok {
			out = append(out, sv)
		}
	}

	slices.SortFunc(out, func(a, b model.ScoredVideo) int {
		if c := cmp.Compare(b.CardsMatched, a.CardsMatched); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Video.ID, b.Video.ID)
	})

	if len(out) > s.maxResults {
		out = out[:s.maxResults]
	}
	return out
}

// Score evaluates a single candidate. ok is false when the candidate fails the
// game gate or matches too few cards.
func (s *RelevanceScorer) Score(deck model.Deck, v model.VideoCandidate, transcript string) (model.ScoredVideo, bool) {
	return s.score(deck, v, transcript, s.now())
}

func (s *RelevanceScorer) score(deck model.Deck, v model.VideoCandidate, transcript string, now time.Time) (model.ScoredVideo, bool) {
	title := strings.ToLower(v.Title)
	desc := strings.ToLower(v.Description)
	trans := strings.ToLower(transcript)

	if !s.aboutGame(title, desc, trans) {
		return model.ScoredVideo{}, false
	}

	var (
		matched   []string
		matches   []model.CardMatch
		inTitle   int
		inTranscr int
	)
	for _, card := range deck {
		name := strings.ToLower(card.BareName())
		var sources []model.Source
		if mentions(title, name) {
			sources = append(sources, model.SourceTitle)
			inTitle++
		}
		if mentions(desc, name) {
			sources = append(sources, model.SourceDescription)
		}
		if mentions(trans, name) {
			sources = append(sources, model.SourceTranscript)
			inTranscr++
		}
		if len(sources) > 0 {
			matched = append(matched, card.Name)
			matches = append(matches, model.CardMatch{Name: card.Name, Sources: sources})
		}
	}

	if len(matched) < s.minMatched {
		return model.ScoredVideo{}, false
	}

	w := s.weights
	score := w.Base[len(matched)]
	score += float64(inTitle) * w.TitlePerCard
	score += float64(inTranscr) * w.TranscriptPerCard

	if _, ok := s.trusted[strings.ToLower(strings.TrimSpace(v.ChannelTitle))]; ok {
		score += w.TrustedChannel
	}
	if deck.HasEvolution() && hasWord(title, evolutionWords...) {
		score += w.Evolution
	}
	score += w.recency(v.PublishedAt, now)
	for i, bonus := range w.YearBonus {
		if strings.Contains(title, strconv.Itoa(now.Year()-i)) {
			score += bonus
		}
	}
	for _, k := range w.Keywords {
		if strings.Contains(title, k.Word) {
			score += k.Bonus
		}
	}

	return model.ScoredVideo{
		Video:            v,
		CardsMatched:     len(matched),
		Score:            score,
		MatchedCardNames: matched,
		Matches:          matches,
	}, true
}

// evolutionWords are matched as whole words so "revolution" or "devour" do not count.
var evolutionWords = []string{"evo", "evos", "evolution", "evolutions"}

// hasWord reports whether any of words appears in text as a whole word.
func hasWord(text string, words ...string) bool {
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if slices.Contains(words, tok) {
			return true
		}
	}
	return false
}

func (s *RelevanceScorer) aboutGame(sources ...string) bool {
	for _, text := range sources {
		for _, k := range s.weights.GameKeywords {
			if strings.Contains(text, k) {
				return true
			}
		}
	}
	return false
}

// mentions reports whether text contains name, either as a phrase or, for
// multi-word names, as every word longer than two letters.
func mentions(text, name string) bool {
	if text == "" || name == "" {
		return false
	}
	if strings.Contains(text, name) {
		return true
	}
	words := strings.Fields(name)
	if len(words) < 2 {
		return false
	}
	checked := 0
	for _, word := range words {
		if len(word) < minWordLen {
			continue
		}
		if !strings.Contains(text, word) {
			return false
		}
		checked++
	}
	return checked > 0
}
