// Package repository persists user profiles and their saved decks and videos.
package repository

import (
	"context"
	"time"

	"github.com/okian/decktube/internal/domain/model"
)

// SavedDeck is a deck a user bookmarked.
type SavedDeck struct {
	ID        string       `json:"id"`
	UserID    string       `json:"-"`
	Name      string       `json:"name"`
	Cards     []model.Card `json:"cards"`
	Archetype string       `json:"archetype,omitempty"`
	AvgElixir float64      `json:"avgElixir"`
	CreatedAt time.Time    `json:"createdAt"`
}

// SavedVideo is a ranked video a user bookmarked.
type SavedVideo struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	VideoID      string    `json:"videoId"`
	Title        string    `json:"title"`
	ChannelTitle string    `json:"channelTitle,omitempty"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	DeckID       string    `json:"deckId,omitempty"`
	CardsMatched int       `json:"cardsMatched"`
	Score        float64   `json:"score"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile is the account record of a user. Premium state is managed by
// billing and is read only here.
type Profile struct {
	ID           string     `json:"id"`
	Email        string     `json:"email,omitempty"`
	FullName     string     `json:"fullName,omitempty"`
	AvatarURL    string     `json:"avatarUrl,omitempty"`
	IsPremium    bool       `json:"isPremium"`
	PremiumUntil *time.Time `json:"premiumUntil,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Store provides per-user access to saved items. Every method is scoped to
// userID; items of other users are reported as ErrNotFound.
type Store interface {
	SaveDeck(ctx context.Context, d SavedDeck) (SavedDeck, error)
	ListDecks(ctx context.Context, userID string) ([]SavedDeck, error)
	DeleteDeck(ctx context.Context, userID, id string) error

	// SaveVideo returns ErrAlreadySaved if the user saved the video before.
	SaveVideo(ctx context.Context, v SavedVideo) (SavedVideo, error)
	ListVideos(ctx context.Context, userID string) ([]SavedVideo, error)
	DeleteVideo(ctx context.Context, userID, id string) error

	// Profile returns ErrNotFound until the user saved a profile.
	Profile(ctx context.Context, userID string) (Profile, error)
	// SaveProfile creates or updates the contact fields of p.ID's profile.
	SaveProfile(ctx context.Context, p Profile) (Profile, error)

	// Counts returns the number of saved decks and videos across all users.
	Counts(ctx context.Context) (decks, videos int, err error)
	Close() error
}
