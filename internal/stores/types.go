// Package stores provides the durable card record store: the narrow
// read/patch contract the scheduling core depends on, with Postgres, SQLite
// and in-memory implementations.
package stores

import (
	"context"
	"errors"
	"time"

	"github.com/esheagren/pluck-sub000/internal/srs"
)

// ErrNotFound is returned when a card does not exist for the given user.
var ErrNotFound = errors.New("stores: card not found")

// CardContent is the displayable side of a card. The scheduling core never
// reads it; it exists for the surfaces that show cards.
type CardContent struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// ReviewLogItem records a single rating event alongside the resulting
// scheduling state.
type ReviewLogItem struct {
	Rating       srs.Rating `json:"rating"`
	RatedAt      time.Time  `json:"rated_at"`
	FirstReview  bool       `json:"first_review"` // the rating took the card out of the New stage
	IntervalDays float64    `json:"interval_days"`
	EaseFactor   float64    `json:"ease_factor"`
	Stage        srs.Stage  `json:"stage"`
}

// CardStore is the durable store contract. Implementations must return due
// cards and new cards in a deterministic order: due cards by due date then
// ID, new cards oldest-first then ID.
type CardStore interface {
	// DueCards returns cards past their due date, excluding never-reviewed
	// cards.
	DueCards(ctx context.Context, userID string, now time.Time) ([]srs.Card, error)
	// NewCards returns never-reviewed cards, oldest first.
	NewCards(ctx context.Context, userID string) ([]srs.Card, error)
	// UpdateCard patches the card's scheduling state and appends a review
	// log entry, atomically.
	UpdateCard(ctx context.Context, userID string, card srs.Card, review ReviewLogItem) error
	// NewCardsReviewedToday counts cards whose first review happened on the
	// calendar day (UTC) containing now.
	NewCardsReviewedToday(ctx context.Context, userID string, now time.Time) (int, error)
	// AddCards creates new cards due immediately and returns their records.
	AddCards(ctx context.Context, userID string, contents []CardContent, now time.Time) ([]srs.Card, error)
	// DeleteCard removes a card and its review log.
	DeleteCard(ctx context.Context, userID, cardID string) error
	// Content returns the displayable side of a card.
	Content(ctx context.Context, userID, cardID string) (CardContent, error)
	// CardCount returns the number of cards the user has.
	CardCount(ctx context.Context, userID string) (int, error)
}

// dayStartUTC returns midnight UTC of the day containing t. The daily
// new-card counter is tracked against UTC days so every device agrees on
// the boundary.
func dayStartUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
