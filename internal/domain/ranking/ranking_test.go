package ranking_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/decktube/internal/domain/model"
	"github.com/okian/decktube/internal/domain/ranking"
	"github.com/okian/decktube/internal/domain/scoring"
	"github.com/okian/decktube/internal/domain/strategy"
	"github.com/okian/decktube/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

var now = time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC)

func testDeck() model.Deck {
	return model.Deck{
		{ID: 1, Name: "Hog Rider", ElixirCost: 4},
		{ID: 2, Name: "Ice Spirit", ElixirCost: 1},
		{ID: 3, Name: "Skeletons", ElixirCost: 1},
		{ID: 4, Name: "The Log", ElixirCost: 2},
		{ID: 5, Name: "Fireball", ElixirCost: 4},
		{ID: 6, Name: "Musketeer", ElixirCost: 4},
		{ID: 7, Name: "Ice Golem", ElixirCost: 2},
		{ID: 8, Name: "Cannon", ElixirCost: 3},
	}
}

// fakeSearcher returns canned results keyed by query; channel searches find nothing.
type fakeSearcher struct {
	mu      sync.Mutex
	byQuery map[string][]model.VideoCandidate
	all     []model.VideoCandidate
	calls   atomic.Int32
	seen    []model.SearchStrategy
}

func (f *fakeSearcher) Search(_ context.Context, s model.SearchStrategy) []model.VideoCandidate {
	f.calls.Add(1)
	f.mu.Lock()
	f.seen = append(f.seen, s)
	f.mu.Unlock()
	if s.ChannelFilter != "" {
		return nil
	}
	if r, ok := f.byQuery[s.Query]; ok {
		return r
	}
	return f.all
}

type fakeTranscripts struct {
	data model.Transcripts
	ids  []string
}

func (f *fakeTranscripts) FetchTranscripts(_ context.Context, ids []string) model.Transcripts {
	f.ids = ids
	out := model.Transcripts{}
	for _, id := range ids {
		if t, ok := f.data[id]; ok {
			out[id] = t
		}
	}
	return out
}

func newOrchestrator(s ranking.Searcher, t ranking.TranscriptFetcher) *ranking.Orchestrator {
	b := strategy.NewBuilder(strategy.WithTrustedChannels([]string{"OJ", "B-Rad Gaming"}))
	sc := scoring.NewRelevanceScorer(scoring.WithClock(func() time.Time { return now }))
	return ranking.NewOrchestrator(b, s, t, sc, ranking.WithClock(func() time.Time { return now }))
}

func TestOrchestratorRank(t *testing.T) {
	Convey("Given an orchestrator with overlapping search results", t, func() {
		full := "Clash Royale Hog Rider Ice Spirit Skeletons The Log Fireball Musketeer Ice Golem Cannon deck"
		searcher := &fakeSearcher{
			byQuery: map[string][]model.VideoCandidate{
				full: {
					{ID: "a", Title: "Clash Royale hog rider fireball cannon"},
					{ID: "b", Title: "Clash Royale deck"},
				},
			},
			all: []model.VideoCandidate{
				{ID: "a", Title: "duplicate that should lose"},
				{ID: "c", Title: "unrelated cooking video"},
			},
		}
		transcripts := &fakeTranscripts{data: model.Transcripts{
			"b": "hog rider ice spirit skeletons the log fireball musketeer ice golem cannon",
		}}
		o := newOrchestrator(searcher, transcripts)

		res, err := o.Rank(context.Background(), testDeck())

		Convey("Then every strategy is searched once", func() {
			So(err, ShouldBeNil)
			So(res.Strategies, ShouldEqual, 2+6)
			So(searcher.calls.Load(), ShouldEqual, int32(8))
		})

		Convey("Then candidates are merged with first-seen winning", func() {
			So(res.Candidates, ShouldEqual, 3)
			So(transcripts.ids, ShouldHaveLength, 3)
			So(res.Transcripts, ShouldEqual, 1)
		})

		Convey("Then results are ranked by coverage", func() {
			So(res.NoMatch, ShouldBeFalse)
			So(res.Videos, ShouldHaveLength, 2)
			So(res.Videos[0].Video.ID, ShouldEqual, "b")
			So(res.Videos[0].CardsMatched, ShouldEqual, 8)
			So(res.Videos[1].Video.Title, ShouldEqual, "Clash Royale hog rider fireball cannon")
			So(res.RequestID, ShouldNotBeEmpty)
		})
	})

	Convey("Given every upstream call failing", t, func() {
		o := newOrchestrator(&fakeSearcher{}, &fakeTranscripts{})

		res, err := o.Rank(context.Background(), testDeck())

		Convey("Then an empty no-match result is returned without error", func() {
			So(err, ShouldBeNil)
			So(res.Videos, ShouldBeEmpty)
			So(res.NoMatch, ShouldBeTrue)
			So(res.Message, ShouldEqual, ranking.NoMatchMessage)
		})
	})

	Convey("Given an invalid deck", t, func() {
		searcher := &fakeSearcher{}
		o := newOrchestrator(searcher, &fakeTranscripts{})

		_, err := o.Rank(context.Background(), testDeck()[:7])

		Convey("Then it is rejected before any search", func() {
			So(errors.Is(err, ranking.ErrInvalidDeck), ShouldBeTrue)
			So(errors.Is(err, model.ErrDeckSize), ShouldBeTrue)
			So(searcher.calls.Load(), ShouldEqual, int32(0))
		})
	})
}

// partialSearcher fails the queries in failing and delays the ones in slow.
type partialSearcher struct {
	failing map[string]bool
	slow    map[string]time.Duration
	results map[string][]model.VideoCandidate
	failed  atomic.Int32
}

func (p *partialSearcher) Search(ctx context.Context, s model.SearchStrategy) []model.VideoCandidate {
	if d, ok := p.slow[s.Query]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil
		}
	}
	if p.failing[s.Query] || s.ChannelFilter != "" {
		p.failed.Add(1)
		return nil
	}
	return p.results[s.Query]
}

func TestOrchestratorPartialFailure(t *testing.T) {
	Convey("Given some strategies failing while others succeed", t, func() {
		full := "Clash Royale Hog Rider Ice Spirit Skeletons The Log Fireball Musketeer Ice Golem Cannon deck"
		guide := "Clash Royale Hog Rider Ice Spirit Skeletons The Log Fireball Musketeer Ice Golem deck guide"
		best := "Hog Rider Ice Spirit Skeletons The Log Fireball Musketeer best deck clash royale"
		meta := "Hog Rider Ice Spirit Skeletons The Log Fireball Musketeer meta deck clash royale"
		searcher := &partialSearcher{
			failing: map[string]bool{full: true, meta: true},
			slow:    map[string]time.Duration{best: 30 * time.Millisecond, full: 20 * time.Millisecond},
			results: map[string][]model.VideoCandidate{
				guide: {{ID: "g", Title: "Clash Royale hog rider ice spirit skeletons the log fireball musketeer ice golem guide"}},
				best:  {{ID: "s", Title: "Clash Royale hog rider fireball musketeer cannon"}},
			},
		}
		o := newOrchestrator(searcher, &fakeTranscripts{})

		res, err := o.Rank(context.Background(), testDeck())

		Convey("Then the surviving strategies still produce a ranking", func() {
			So(err, ShouldBeNil)
			So(res.Strategies, ShouldEqual, 8)
			// two channel searches plus the full and meta queries
			So(searcher.failed.Load(), ShouldEqual, int32(4))
			So(res.Candidates, ShouldEqual, 2)
			So(res.NoMatch, ShouldBeFalse)
			So(res.Videos, ShouldHaveLength, 2)
			So(res.Videos[0].Video.ID, ShouldEqual, "g")
			So(res.Videos[1].Video.ID, ShouldEqual, "s")
		})
	})
}
