package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	"github.com/okian/decktube/pkg/metrics"
)

const maxNameLen = 120

// Profile returns the profile of userID.
func (s *SQLiteStore) Profile(ctx context.Context, userID string) (Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return Profile{}, ErrNoUser
	}
	var (
		p                    Profile
		email, name, avatar  sql.NullString
		premiumUntil         sql.NullString
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, avatar_url, is_premium, premium_until, created_at, updated_at
		 FROM profiles WHERE id = ?`, userID).
		Scan(&p.ID, &email, &name, &avatar, &p.IsPremium, &premiumUntil, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, fmt.Errorf("%w: profile %s", ErrNotFound, userID)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("query profile: %w", err)
	}
	p.Email, p.FullName, p.AvatarURL = email.String, name.String, avatar.String
	if premiumUntil.Valid {
		t := parseTime(premiumUntil.String)
		p.PremiumUntil = &t
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

// SaveProfile upserts the email, name and avatar of p.ID. Premium fields of
// p are ignored.
func (s *SQLiteStore) SaveProfile(ctx context.Context, p Profile) (Profile, error) {
	if strings.TrimSpace(p.ID) == "" {
		return Profile{}, ErrNoUser
	}
	if err := validateProfile(&p); err != nil {
		return Profile{}, err
	}
	now := s.now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, email, full_name, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   email = excluded.email,
		   full_name = excluded.full_name,
		   avatar_url = excluded.avatar_url,
		   updated_at = excluded.updated_at`,
		p.ID, nullable(p.Email), nullable(p.FullName), nullable(p.AvatarURL), now, now)
	if err != nil {
		return Profile{}, fmt.Errorf("upsert profile: %w", err)
	}
	metrics.RecordSavedItemWrite("profile", "upsert")
	return s.Profile(ctx, p.ID)
}

func validateProfile(p *Profile) error {
	p.Email = strings.TrimSpace(p.Email)
	p.FullName = strings.TrimSpace(p.FullName)
	p.AvatarURL = strings.TrimSpace(p.AvatarURL)
	if p.Email != "" {
		addr, err := mail.ParseAddress(p.Email)
		if err != nil || addr.Name != "" {
			return fmt.Errorf("%w: email %q", ErrInvalidItem, p.Email)
		}
	}
	if len(p.FullName) > maxNameLen {
		return fmt.Errorf("%w: name longer than %d bytes", ErrInvalidItem, maxNameLen)
	}
	if p.AvatarURL != "" {
		u, err := url.Parse(p.AvatarURL)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return fmt.Errorf("%w: avatar url %q", ErrInvalidItem, p.AvatarURL)
		}
	}
	return nil
}
