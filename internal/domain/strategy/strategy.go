// Package strategy builds the fan-out of search requests issued for a deck.
package strategy

import (
	"strings"
	"time"

	"github.com/okian/decktube/internal/domain/model"
)

// Option configures a Builder.
type Option func(*Builder)

// WithTrustedChannels replaces the channel list that gets dedicated searches.
func WithTrustedChannels(channels []string) Option {
	return func(b *Builder) {
		b.channels = append([]string(nil), channels...)
	}
}

// Builder constructs search strategies. It holds no per-request state.
type Builder struct {
	channels []string
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// TrustedChannels returns the configured channel list.
func (b *Builder) TrustedChannels() []string {
	return append([]string(nil), b.channels...)
}

// Build returns the ordered strategies for deck at reference time now.
// The deck must already be validated.
func (b *Builder) Build(deck model.Deck, now time.Time) []model.SearchStrategy {
	sixMonths := now.AddDate(0, -6, 0)
	oneYear := now.AddDate(-1, 0, 0)
	twoYears := now.AddDate(-2, 0, 0)

	all := joined(deck, 0)
	out := make([]model.SearchStrategy, 0, len(b.channels)+8)

	for _, ch := range b.channels {
		out = append(out, newStrategy("Clash Royale "+all+" deck", ch, sixMonths, model.OrderRelevance, 10, model.TierHigh))
	}

	out = append(out,
		newStrategy("Clash Royale "+all+" deck", "", oneYear, model.OrderRelevance, 50, model.TierHigh),
		newStrategy("Clash Royale "+joined(deck, 7)+" deck guide", "", oneYear, model.OrderRelevance, 50, model.TierHigh),
		newStrategy(joined(deck, 6)+" best deck clash royale", "", oneYear, model.OrderRelevance, 30, model.TierMedium),
		newStrategy(joined(deck, 6)+" meta deck clash royale", "", twoYears, model.OrderViewCount, 30, model.TierMedium),
		newStrategy(joined(deck, 5)+" deck strategy clash royale", "", twoYears, model.OrderRelevance, 25, model.TierLow),
		newStrategy(joined(deck, 5)+" gameplay clash royale", "", twoYears, model.OrderDate, 25, model.TierLow),
	)

	if deck.HasEvolution() {
		out = append(out, newStrategy("Clash Royale evolution "+joined(deck, 7), "", oneYear, model.OrderRelevance, 30, model.TierHigh))
	}
	return out
}

func newStrategy(q, channel string, after time.Time, order model.Order, limit int, tier model.Tier) model.SearchStrategy {
	return model.SearchStrategy{
		Query:          q,
		ChannelFilter:  channel,
		PublishedAfter: after,
		Order:          order,
		MaxResults:     min(limit, model.MaxSearchResults),
		Tier:           tier,
	}
}

func joined(deck model.Deck, n int) string {
	return strings.Join(deck.BareNames(n), " ")
}
