// Package service wires the ranking pipeline, the upstream clients and the
// saved items store into the dependencies required by the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/decktube/internal/adapters/clashapi"
	"github.com/okian/decktube/internal/adapters/http/api"
	"github.com/okian/decktube/internal/adapters/repository"
	"github.com/okian/decktube/internal/adapters/youtube"
	"github.com/okian/decktube/internal/config"
	"github.com/okian/decktube/internal/domain/catalog"
	"github.com/okian/decktube/internal/domain/model"
	"github.com/okian/decktube/internal/domain/ranking"
	"github.com/okian/decktube/internal/domain/scoring"
	"github.com/okian/decktube/internal/domain/strategy"
	"github.com/okian/decktube/pkg/logger"
	"github.com/okian/decktube/pkg/metrics"
)

// Service implements the API dependencies for the deck video ranker.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	youtube *youtube.Client
	clash   *clashapi.Client
	source  catalog.Source
	cards   *catalog.Cache
	ranker  ranking.Ranker
	store   repository.Store

	// State
	started   bool
	startedAt time.Time
	rankings  atomic.Int64
	noMatch   atomic.Int64
	last      atomic.Pointer[ranking.Result]

	logger logger.Logger
}

var (
	_ api.Dependencies  = (*Service)(nil)
	_ api.StatsProvider = (*Service)(nil)
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration the components are built from.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithYouTubeClient replaces the client built from configuration.
func WithYouTubeClient(c *youtube.Client) Option {
	return func(s *Service) {
		s.youtube = c
	}
}

// WithClashClient replaces the client built from configuration.
func WithClashClient(c *clashapi.Client) Option {
	return func(s *Service) {
		s.clash = c
	}
}

// WithCatalogSource overrides where the card catalog is loaded from.
func WithCatalogSource(src catalog.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithStore replaces the SQLite store opened from configuration.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{cfg: config.New()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components that were not injected. It is idempotent.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting decktube service...")

	cfg := s.cfg
	if s.youtube == nil {
		s.youtube = youtube.New(
			youtube.WithAPIKey(cfg.YouTube.APIKey),
			youtube.WithBaseURL(cfg.YouTube.BaseURL),
			youtube.WithTimedTextURL(cfg.YouTube.TimedTextURL),
			youtube.WithTimeouts(cfg.YouTube.SearchTimeout, cfg.YouTube.TranscriptTimeout),
			youtube.WithRateLimit(cfg.YouTube.RequestsPerSecond),
			youtube.WithBatching(cfg.YouTube.TranscriptBatchSize, cfg.YouTube.TranscriptBatchDelay),
			youtube.WithLanguages(cfg.YouTube.TranscriptLanguages),
		)
	}
	if s.clash == nil {
		s.clash = clashapi.New(
			clashapi.WithAPIKey(cfg.Clash.APIKey),
			clashapi.WithBaseURL(cfg.Clash.BaseURL),
			clashapi.WithFallbackURL(cfg.Clash.FallbackURL),
			clashapi.WithStatsURL(cfg.Clash.StatsURL),
			clashapi.WithTimeout(cfg.Clash.Timeout),
		)
	}
	if s.source == nil {
		s.source = s.clash
	}
	s.cards = catalog.NewCache(s.source, catalog.WithTTL(cfg.Clash.CacheTTL))

	builder := strategy.NewBuilder(strategy.WithTrustedChannels(cfg.Ranking.TrustedChannels))
	scorer := scoring.NewRelevanceScorer(
		scoring.WithTrustedChannels(builder.TrustedChannels()),
		scoring.WithMaxResults(cfg.Ranking.MaxResults),
		scoring.WithMinCardsMatched(cfg.Ranking.MinCardsMatched),
	)
	s.ranker = ranking.NewOrchestrator(builder, s.youtube, s.youtube, scorer)

	if s.store == nil && cfg.Storage.Path != "" {
		st, err := repository.Open(ctx, cfg.Storage.Path, repository.WithAutoMigrate(cfg.Storage.AutoMigrate))
		if err != nil {
			return fmt.Errorf("open saved items store: %w", err)
		}
		s.store = st
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "decktube service started",
		logger.Bool("youtube_key", cfg.YouTube.APIKey != ""),
		logger.Bool("clash_key", cfg.Clash.APIKey != ""),
		logger.Bool("storage", s.store != nil),
		logger.Int("max_results", cfg.Ranking.MaxResults),
	)
	return nil
}

// Stop releases the store. It is safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping decktube service...")
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "close store", logger.Error(err))
		}
		s.store = nil
	}
	s.started = false
	s.logger.Info(context.Background(), "decktube service stopped")
}

func (s *Service) running() error {
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Catalog returns the current card catalog.
func (s *Service) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	s.mu.RLock()
	cards, err := s.cards, s.running()
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return cards.Get(ctx)
}

// Player looks up a player profile.
func (s *Service) Player(ctx context.Context, tag string) (clashapi.Player, error) {
	clash, err := s.clashClient()
	if err != nil {
		return clashapi.Player{}, err
	}
	return clash.Player(ctx, tag)
}

// TopDecks returns the most played decks.
func (s *Service) TopDecks(ctx context.Context, limit int) ([]clashapi.TopDeck, error) {
	clash, err := s.clashClient()
	if err != nil {
		return nil, err
	}
	return clash.TopDecks(ctx, limit)
}

// MetaDecks returns last week's meta decks at or above minTrophies.
func (s *Service) MetaDecks(ctx context.Context, minTrophies int) ([]clashapi.TopDeck, error) {
	clash, err := s.clashClient()
	if err != nil {
		return nil, err
	}
	return clash.MetaDecks(ctx, minTrophies)
}

// SearchDecks returns decks holding all of cardIDs.
func (s *Service) SearchDecks(ctx context.Context, cardIDs []int) ([]clashapi.TopDeck, error) {
	clash, err := s.clashClient()
	if err != nil {
		return nil, err
	}
	return clash.SearchDecks(ctx, cardIDs)
}

// CardStats returns card usage rates.
func (s *Service) CardStats(ctx context.Context) ([]json.RawMessage, error) {
	clash, err := s.clashClient()
	if err != nil {
		return nil, err
	}
	return clash.CardStats(ctx)
}

// Challenges returns the running in-game challenges.
func (s *Service) Challenges(ctx context.Context) ([]json.RawMessage, error) {
	clash, err := s.clashClient()
	if err != nil {
		return nil, err
	}
	return clash.Challenges(ctx)
}

// Tournaments returns the scheduled global tournaments.
func (s *Service) Tournaments(ctx context.Context) ([]json.RawMessage, error) {
	clash, err := s.clashClient()
	if err != nil {
		return nil, err
	}
	return clash.Tournaments(ctx)
}

func (s *Service) clashClient() (*clashapi.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clash, s.running()
}

// RankVideos runs the relevance pipeline for deck.
func (s *Service) RankVideos(ctx context.Context, deck model.Deck) (ranking.Result, error) {
	s.mu.RLock()
	ranker := s.ranker
	err := s.running()
	s.mu.RUnlock()
	if err != nil {
		return ranking.Result{}, err
	}

	res, err := ranker.Rank(ctx, deck)
	if err != nil {
		metrics.RecordErrorByComponent("ranking", "invalid_deck")
		return ranking.Result{}, err
	}
	if len(res.Videos) > 0 {
		videos := make([]model.VideoCandidate, len(res.Videos))
		for i, sv := range res.Videos {
			videos[i] = sv.Video
		}
		s.fillDurations(ctx, videos)
		for i := range res.Videos {
			res.Videos[i].Video.Duration = videos[i].Duration
		}
	}
	s.rankings.Add(1)
	if res.NoMatch {
		s.noMatch.Add(1)
	}
	s.last.Store(&res)
	return res, nil
}

// SearchVideos runs a single search and reports upstream failures.
func (s *Service) SearchVideos(ctx context.Context, st model.SearchStrategy) ([]model.VideoCandidate, error) {
	yt, err := s.youtubeClient()
	if err != nil {
		return nil, err
	}
	videos, err := yt.SearchStrict(ctx, st)
	if err != nil {
		return nil, err
	}
	s.fillDurations(ctx, videos)
	return videos, nil
}

// fillDurations sets the display length of videos in place. Lookup failures
// leave the lengths empty.
func (s *Service) fillDurations(ctx context.Context, videos []model.VideoCandidate) {
	yt, err := s.youtubeClient()
	if err != nil || yt == nil || len(videos) == 0 {
		return
	}
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ID)
	}
	lengths, err := yt.Durations(ctx, ids)
	if err != nil {
		metrics.RecordErrorByComponent("youtube_details", "upstream")
		s.logger.Debug(ctx, "video durations unavailable", logger.Error(err))
	}
	for i := range videos {
		if d, ok := lengths[videos[i].ID]; ok {
			videos[i].Duration = youtube.FormatDuration(d)
		}
	}
}

// Transcript fetches the captions of one video.
func (s *Service) Transcript(ctx context.Context, videoID string) (string, error) {
	yt, err := s.youtubeClient()
	if err != nil {
		return "", err
	}
	return yt.FetchTranscript(ctx, videoID)
}

// Transcripts fetches captions for many videos; missing ones are omitted.
func (s *Service) Transcripts(ctx context.Context, videoIDs []string) model.Transcripts {
	yt, err := s.youtubeClient()
	if err != nil {
		return model.Transcripts{}
	}
	return yt.FetchTranscripts(ctx, videoIDs)
}

// youtubeClient returns the client without holding the lock across calls.
func (s *Service) youtubeClient() (*youtube.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.youtube, s.running()
}

func (s *Service) savedStore() (repository.Store, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, api.ErrStorageDisabled
	}
	return s.store, nil
}

// SaveDeck stores a deck for its user.
func (s *Service) SaveDeck(ctx context.Context, d repository.SavedDeck) (repository.SavedDeck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.savedStore()
	if err != nil {
		return repository.SavedDeck{}, err
	}
	return st.SaveDeck(ctx, d)
}

// ListDecks lists the saved decks of userID.
func (s *Service) ListDecks(ctx context.Context, userID string) ([]repository.SavedDeck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.savedStore()
	if err != nil {
		return nil, err
	}
	return st.ListDecks(ctx, userID)
}

// DeleteDeck removes a saved deck of userID.
func (s *Service) DeleteDeck(ctx context.Context, userID, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.savedStore()
	if err != nil {
		return err
	}
	return st.DeleteDeck(ctx, userID, id)
}

// SaveVideo stores a video for its user.
func (s *Service) SaveVideo(ctx context.Context, v repository.SavedVideo) (repository.SavedVideo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.savedStore()
	if err != nil {
		return repository.SavedVideo{}, err
	}
	return st.SaveVideo(ctx, v)
}

// ListVideos lists the saved videos of userID.
func (s *Service) ListVideos(ctx context.Context, userID string) ([]repository.SavedVideo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.savedStore()
	if err != nil {
		return nil, err
	}
	return st.ListVideos(ctx, userID)
}

// DeleteVideo removes a saved video of userID.
func (s *Service) DeleteVideo(ctx context.Context, userID, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.savedStore()
	if err != nil {
		return err
	}
	return st.DeleteVideo(ctx, userID, id)
}

// Profile returns the user's profile.
func (s *Service) Profile(ctx context.Context, userID string) (repository.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.savedStore()
	if err != nil {
		return repository.Profile{}, err
	}
	return st.Profile(ctx, userID)
}

// SaveProfile creates or updates the user's profile.
func (s *Service) SaveProfile(ctx context.Context, p repository.Profile) (repository.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := s.savedStore()
	if err != nil {
		return repository.Profile{}, err
	}
	return st.SaveProfile(ctx, p)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	goroutines := runtime.NumGoroutine()
	metrics.UpdateSystemMemoryUsage(mem.Alloc)
	metrics.UpdateSystemGoroutineCount(goroutines)

	stats := map[string]interface{}{
		"started":         s.started,
		"rankings":        s.rankings.Load(),
		"noMatch":         s.noMatch.Load(),
		"storageEnabled":  s.store != nil,
		"goroutines":      goroutines,
		"memoryAllocated": mem.Alloc,
	}
	if !s.started {
		return stats
	}

	stats["uptime"] = time.Since(s.startedAt).Round(time.Second).String()
	if last := s.last.Load(); last != nil {
		stats["lastRanking"] = map[string]interface{}{
			"requestId":   last.RequestID,
			"strategies":  last.Strategies,
			"candidates":  last.Candidates,
			"transcripts": last.Transcripts,
			"results":     len(last.Videos),
			"tookMs":      last.Took.Milliseconds(),
		}
	}
	if s.store != nil {
		decks, videos, err := s.store.Counts(context.Background())
		if err == nil {
			stats["savedDecks"] = decks
			stats["savedVideos"] = videos
		}
	}
	return stats
}
