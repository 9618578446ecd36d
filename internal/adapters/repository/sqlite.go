package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/okian/decktube/pkg/logger"
	"github.com/okian/decktube/pkg/metrics"
)

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	db          *sql.DB
	log         logger.Logger
	now         func() time.Time
	autoMigrate bool
	busyTimeout time.Duration
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (and creates if needed) the database at path.
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{
		now:         time.Now,
		autoMigrate: true,
		busyTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("repository")
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty database path", ErrInvalidItem)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	if s.autoMigrate {
		if err := Migrate(path); err != nil {
			return nil, err
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		path, s.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s.db = db
	s.log.Info(ctx, "saved items store ready", logger.String("path", path))
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveDeck stores a deck for its user.
func (s *SQLiteStore) SaveDeck(ctx context.Context, d SavedDeck) (SavedDeck, error) {
	if strings.TrimSpace(d.UserID) == "" {
		return SavedDeck{}, ErrNoUser
	}
	if len(d.Cards) == 0 {
		return SavedDeck{}, fmt.Errorf("%w: deck has no cards", ErrInvalidItem)
	}
	if strings.TrimSpace(d.Name) == "" {
		d.Name = "Untitled deck"
	}
	cards, err := json.Marshal(d.Cards)
	if err != nil {
		return SavedDeck{}, fmt.Errorf("encode cards: %w", err)
	}
	d.ID = uuid.NewString()
	d.CreatedAt = s.now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_decks (id, user_id, name, cards, archetype, avg_elixir, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.Name, string(cards), d.Archetype, d.AvgElixir, d.CreatedAt.Format(timeLayout))
	if err != nil {
		return SavedDeck{}, fmt.Errorf("insert deck: %w", err)
	}
	metrics.RecordSavedItemWrite("deck", "create")
	return d, nil
}

// ListDecks returns the user's decks, newest first.
func (s *SQLiteStore) ListDecks(ctx context.Context, userID string) ([]SavedDeck, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNoUser
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, cards, archetype, avg_elixir, created_at
		 FROM saved_decks WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query decks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []SavedDeck{}
	for rows.Next() {
		var (
			d         SavedDeck
			cards     string
			createdAt string
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &cards, &d.Archetype, &d.AvgElixir, &createdAt); err != nil {
			return nil, fmt.Errorf("scan deck: %w", err)
		}
		if err := json.Unmarshal([]byte(cards), &d.Cards); err != nil {
			return nil, fmt.Errorf("decode cards of deck %s: %w", d.ID, err)
		}
		d.CreatedAt = parseTime(createdAt)
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDeck removes a deck. Videos saved against it keep existing.
func (s *SQLiteStore) DeleteDeck(ctx context.Context, userID, id string) error {
	return s.delete(ctx, "saved_decks", "deck", userID, id)
}

// SaveVideo stores a video for its user.
func (s *SQLiteStore) SaveVideo(ctx context.Context, v SavedVideo) (SavedVideo, error) {
	if strings.TrimSpace(v.UserID) == "" {
		return SavedVideo{}, ErrNoUser
	}
	if strings.TrimSpace(v.VideoID) == "" {
		return SavedVideo{}, fmt.Errorf("%w: video id is required", ErrInvalidItem)
	}
	if v.DeckID != "" {
		var n int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM saved_decks WHERE id = ? AND user_id = ?`, v.DeckID, v.UserID).Scan(&n)
		if err != nil {
			return SavedVideo{}, fmt.Errorf("check deck: %w", err)
		}
		if n == 0 {
			return SavedVideo{}, fmt.Errorf("%w: deck %s", ErrNotFound, v.DeckID)
		}
	}
	v.ID = uuid.NewString()
	v.CreatedAt = s.now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_videos
		 (id, user_id, video_id, title, channel_title, thumbnail_url, deck_id, cards_matched, score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, video_id) DO NOTHING`,
		v.ID, v.UserID, v.VideoID, v.Title, v.ChannelTitle, v.ThumbnailURL, nullable(v.DeckID),
		v.CardsMatched, v.Score, v.CreatedAt.Format(timeLayout))
	if err != nil {
		return SavedVideo{}, fmt.Errorf("insert video: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return SavedVideo{}, fmt.Errorf("%w: video %s", ErrAlreadySaved, v.VideoID)
	}
	metrics.RecordSavedItemWrite("video", "create")
	return v, nil
}

// ListVideos returns the user's videos, newest first.
func (s *SQLiteStore) ListVideos(ctx context.Context, userID string) ([]SavedVideo, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNoUser
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, video_id, title, channel_title, thumbnail_url, deck_id, cards_matched, score, created_at
		 FROM saved_videos WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []SavedVideo{}
	for rows.Next() {
		var (
			v         SavedVideo
			deckID    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&v.ID, &v.UserID, &v.VideoID, &v.Title, &v.ChannelTitle, &v.ThumbnailURL,
			&deckID, &v.CardsMatched, &v.Score, &createdAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		v.DeckID = deckID.String
		v.CreatedAt = parseTime(createdAt)
		out = append(out, v)
	}
	return out, rows.Err()
}

// DeleteVideo removes a saved video.
func (s *SQLiteStore) DeleteVideo(ctx context.Context, userID, id string) error {
	return s.delete(ctx, "saved_videos", "video", userID, id)
}

// Counts returns totals across all users.
func (s *SQLiteStore) Counts(ctx context.Context) (int, int, error) {
	var decks, videos int
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(1) FROM saved_decks), (SELECT COUNT(1) FROM saved_videos)`).Scan(&decks, &videos)
	if err != nil {
		return 0, 0, fmt.Errorf("count saved items: %w", err)
	}
	return decks, videos, nil
}

// delete removes one row of table owned by userID. table is never user input.
func (s *SQLiteStore) delete(ctx context.Context, table, kind, userID, id string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrNoUser
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	metrics.RecordSavedItemWrite(kind, "delete")
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
