// Package ranking drives the deck to video pipeline: strategy fan-out,
// merge, transcripts, scoring.
package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/decktube/internal/domain/dedupe"
	"github.com/okian/decktube/internal/domain/model"
	"github.com/okian/decktube/internal/domain/scoring"
	"github.com/okian/decktube/internal/domain/strategy"
	"github.com/okian/decktube/pkg/logger"
	"github.com/okian/decktube/pkg/metrics"
)

// NoMatchMessage explains an empty ranking to the caller.
const NoMatchMessage = "No videos found that discuss at least 3 cards of this deck. Try a more popular deck or swap a card."

// Searcher runs one strategy. Failures are reported as an empty list.
type Searcher interface {
	Search(ctx context.Context, s model.SearchStrategy) []model.VideoCandidate
}

// TranscriptFetcher returns transcripts for the ids it could retrieve.
type TranscriptFetcher interface {
	FetchTranscripts(ctx context.Context, ids []string) model.Transcripts
}

// Ranker is the entry point used by transports.
type Ranker interface {
	Rank(ctx context.Context, deck model.Deck) (Result, error)
}

// Result is the outcome of one ranking request.
type Result struct {
	RequestID string              `json:"requestId"`
	Videos    []model.ScoredVideo `json:"videos"`
	// NoMatch is set when no candidate cleared the filters.
	NoMatch     bool          `json:"noMatch"`
	Message     string        `json:"message,omitempty"`
	Strategies  int           `json:"strategies"`
	Candidates  int           `json:"candidates"`
	Transcripts int           `json:"transcripts"`
	Took        time.Duration `json:"took"`
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock overrides the reference time for strategy cutoffs.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// Orchestrator implements Ranker.
type Orchestrator struct {
	builder     *strategy.Builder
	searcher    Searcher
	transcripts TranscriptFetcher
	scorer      *scoring.RelevanceScorer
	log         logger.Logger
	now         func() time.Time
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(b *strategy.Builder, s Searcher, t TranscriptFetcher, sc *scoring.RelevanceScorer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		builder:     b,
		searcher:    s,
		transcripts: t,
		scorer:      sc,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Get().Named("ranking")
	}
	return o
}

// Rank finds and orders videos discussing deck. Upstream failures degrade to
// fewer candidates; only an invalid deck is returned as an error.
func (o *Orchestrator) Rank(ctx context.Context, deck model.Deck) (Result, error) {
	if err := deck.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidDeck, err)
	}
	start := time.Now()
	res := Result{RequestID: uuid.NewString()}
	metrics.RecordRankingRequest()

	strategies := o.builder.Build(deck, o.now())
	res.Strategies = len(strategies)

	batches := make([][]model.VideoCandidate, len(strategies))
	var g errgroup.Group
	for i, s := range strategies {
		g.Go(func() error {
			batches[i] = o.searcher.Search(ctx, s)
			return nil
		})
	}
	_ = g.Wait()

	candidates := dedupe.Merge(batches...)
	res.Candidates = len(candidates)

	ids := make([]string, 0, len(candidates))
	for _, v := range candidates {
		ids = append(ids, v.ID)
	}
	transcripts := model.Transcripts{}
	if len(ids) > 0 {
		transcripts = o.transcripts.FetchTranscripts(ctx, ids)
	}
	res.Transcripts = len(transcripts)

	res.Videos = o.scorer.Rank(deck, candidates, transcripts)
	if len(res.Videos) == 0 {
		res.NoMatch = true
		res.Message = NoMatchMessage
		metrics.RecordRankingNoMatch()
	}

	res.Took = time.Since(start)
	metrics.RecordRankingLatency(float64(res.Took.Milliseconds()))
	metrics.RecordRankingShape(res.Strategies, res.Candidates, len(res.Videos))
	o.log.Info(ctx, "ranking finished",
		logger.String("request_id", res.RequestID),
		logger.Int("strategies", res.Strategies),
		logger.Int("candidates", res.Candidates),
		logger.Int("transcripts", res.Transcripts),
		logger.Int("results", len(res.Videos)),
		logger.Bool("no_match", res.NoMatch),
		logger.Duration("took", res.Took),
	)
	return res, nil
}
