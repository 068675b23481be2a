// Package session owns the ordered in-memory queue of cards for one review
// sitting: it blends due cards with a capped stream of new cards, mediates
// rating, skip and removal operations, and projects display-ready progress
// counters.
package session

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/esheagren/pluck-sub000/internal/srs"
	"github.com/esheagren/pluck-sub000/internal/stores"
)

// Store is the slice of the card record store a session needs.
// stores.CardStore satisfies it.
type Store interface {
	DueCards(ctx context.Context, userID string, now time.Time) ([]srs.Card, error)
	NewCards(ctx context.Context, userID string) ([]srs.Card, error)
	UpdateCard(ctx context.Context, userID string, card srs.Card, review stores.ReviewLogItem) error
	NewCardsReviewedToday(ctx context.Context, userID string, now time.Time) (int, error)
}

// Nower abstracts the clock so sittings are testable at fixed times.
type Nower interface {
	Now() time.Time
}

// RealNower is the wall clock.
type RealNower struct{}

func (RealNower) Now() time.Time { return time.Now() }

// Config holds the session-level knobs.
type Config struct {
	// NewCardsPerDay caps how many never-reviewed cards enter a day's
	// sittings. Zero means unlimited.
	NewCardsPerDay int
	// RequeueGap is the minimum number of positions between a card rated
	// Again and its same-sitting retry. Zero → 3.
	RequeueGap int
}

// entry wraps a card inside the queue with session-only metadata.
type entry struct {
	card         srs.Card
	againRequeue bool
}

// Session is the queue of cards for one continuous sitting. It is not safe
// for concurrent use; callers serialize operations (one rating in flight at
// a time). The only blocking call is the store write inside SubmitReview.
type Session struct {
	store  Store
	sched  *srs.Scheduler
	nower  Nower
	userID string
	cfg    Config

	queue    []entry
	index    int
	reviewed int

	dueCount          int
	newAvailableToday int
	totalNewCards     int
}

// New builds the sitting's queue: due cards first (stable-sorted by due date
// then ID), then up to the day's remaining new-card allowance, oldest first.
func New(ctx context.Context, store Store, sched *srs.Scheduler, nower Nower, userID string, cfg Config) (*Session, error) {
	if cfg.RequeueGap <= 0 {
		cfg.RequeueGap = 3
	}
	s := &Session{
		store:  store,
		sched:  sched,
		nower:  nower,
		userID: userID,
		cfg:    cfg,
	}
	if err := s.build(ctx, false, false); err != nil {
		return nil, err
	}
	return s, nil
}

// build constructs the queue. With newOnly set it restricts the sitting to
// new cards; ignoreLimit additionally bypasses the daily cap.
func (s *Session) build(ctx context.Context, newOnly, ignoreLimit bool) error {
	now := s.nower.Now()

	var due []srs.Card
	if !newOnly {
		var err error
		due, err = s.store.DueCards(ctx, s.userID, now)
		if err != nil {
			return fmt.Errorf("fetch due cards: %w", err)
		}
		// The store contract excludes New-stage cards from DueCards, but a
		// corrupt record must not let one slip past the daily cap.
		due = slices.DeleteFunc(due, srs.Card.IsNew)
		sort.SliceStable(due, func(i, j int) bool {
			if !due[i].DueAt.Equal(due[j].DueAt) {
				return due[i].DueAt.Before(due[j].DueAt)
			}
			return due[i].ID < due[j].ID
		})
	}

	fresh, err := s.store.NewCards(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("fetch new cards: %w", err)
	}

	avail := len(fresh)
	if !ignoreLimit && s.cfg.NewCardsPerDay > 0 {
		shown, err := s.store.NewCardsReviewedToday(ctx, s.userID, now)
		if err != nil {
			return fmt.Errorf("count new cards reviewed today: %w", err)
		}
		avail = s.cfg.NewCardsPerDay - shown
		if avail < 0 {
			avail = 0
		}
	}
	take := min(avail, len(fresh))

	queue := make([]entry, 0, len(due)+take)
	for _, c := range due {
		queue = append(queue, entry{card: c})
	}
	for _, c := range fresh[:take] {
		queue = append(queue, entry{card: c})
	}

	s.queue = queue
	s.index = 0
	s.dueCount = len(due)
	s.newAvailableToday = avail
	s.totalNewCards = len(fresh) - take

	log.Debug().Str("userID", s.userID).
		Int("due", len(due)).Int("new", take).Int("beyond-cap", s.totalNewCards).
		Msg("session-built")
	return nil
}

// CurrentCard returns the card at the queue position, or false when the
// sitting is complete.
func (s *Session) CurrentCard() (srs.Card, bool) {
	if s.index >= len(s.queue) {
		return srs.Card{}, false
	}
	return s.queue[s.index].card, true
}

// Previews returns the human-readable interval each rating would give the
// current card. It mutates nothing and is idempotent between reviews.
func (s *Session) Previews() (srs.Previews, error) {
	card, ok := s.CurrentCard()
	if !ok {
		return srs.Previews{}, ErrNoCurrentCard
	}
	return s.sched.PreviewIntervals(card, s.nower.Now())
}

// SubmitReview rates the current card: the scheduler computes the next
// state, the store persists it, and only then does the queue advance. A
// failed write leaves the session untouched so the call is safely
// retryable. The caller is responsible for having revealed the card first.
func (s *Session) SubmitReview(ctx context.Context, rating srs.Rating) error {
	if s.index >= len(s.queue) {
		return ErrNoCurrentCard
	}
	e := s.queue[s.index]
	now := s.nower.Now()

	next, err := s.sched.Next(e.card, rating, now)
	if err != nil {
		return err
	}
	review := stores.ReviewLogItem{
		Rating:       rating,
		RatedAt:      now,
		FirstReview:  e.card.IsNew(),
		IntervalDays: next.IntervalDays,
		EaseFactor:   next.EaseFactor,
		Stage:        next.Stage,
	}
	if err := s.store.UpdateCard(ctx, s.userID, next, review); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	if rating == srs.Again {
		s.requeueAgain(next)
	}
	// Requeued retries were already counted when their original instance
	// was rated.
	if !e.againRequeue {
		s.reviewed++
	}
	s.index++

	log.Ctx(ctx).Info().Str("cardID", e.card.ID).Str("rating", rating.String()).
		Str("stage", next.Stage.String()).Float64("interval-days", next.IntervalDays).
		Time("due", next.DueAt).Msg("card-rated")
	return nil
}

// requeueAgain re-inserts a just-failed card later in the same sitting. The
// gap is at least cfg.RequeueGap positions, stretching to a third of the
// remaining queue in long sittings, so the retry is never the immediate
// next entry. When fewer cards than the gap remain the retry lands at the
// end of the queue.
func (s *Session) requeueAgain(card srs.Card) {
	remaining := len(s.queue) - s.index - 1
	gap := s.cfg.RequeueGap
	if remaining/3 > gap {
		gap = remaining / 3
	}
	pos := min(s.index+1+gap, len(s.queue))
	s.queue = slices.Insert(s.queue, pos, entry{card: card, againRequeue: true})
}

// SkipCard defers the current card to the end of the queue without rating
// or persisting anything. The position then points at the next entry.
func (s *Session) SkipCard() {
	if s.index >= len(s.queue) {
		return
	}
	e := s.queue[s.index]
	s.queue = append(slices.Delete(s.queue, s.index, s.index+1), e)
}

// RemoveCard drops every queue entry for the card, including again-requeues.
// Used when the card is deleted externally mid-sitting. Removing a card not
// in the queue is a no-op; the reviewed counter is never rewritten.
func (s *Session) RemoveCard(cardID string) {
	kept := s.queue[:0]
	index := s.index
	for i, e := range s.queue {
		if e.card.ID == cardID {
			if i < s.index {
				index--
			}
			continue
		}
		kept = append(kept, e)
	}
	s.queue = kept
	if index > len(s.queue) {
		index = len(s.queue)
	}
	s.index = index
}

// StartNewCardsSession rebuilds the sitting from New-stage cards only, used
// when the user opts to learn more after exhausting the queue. With
// ignoreLimit the daily cap is bypassed. The cumulative reviewed count
// carries over.
func (s *Session) StartNewCardsSession(ctx context.Context, ignoreLimit bool) error {
	return s.build(ctx, true, ignoreLimit)
}

// Counters is the read-only session state exposed to callers.
type Counters struct {
	TotalCards             int `json:"total_cards"`
	ReviewedCount          int `json:"reviewed_count"`
	TotalNewCards          int `json:"total_new_cards"`
	NewCardsAvailableToday int `json:"new_cards_available_today"`
	NewCardsPerDay         int `json:"new_cards_per_day"`
	CurrentIndex           int `json:"current_index"`
	DueCards               int `json:"due_cards"`
}

// Counters returns the session's current counters.
func (s *Session) Counters() Counters {
	return Counters{
		TotalCards:             len(s.queue),
		ReviewedCount:          s.reviewed,
		TotalNewCards:          s.totalNewCards,
		NewCardsAvailableToday: s.newAvailableToday,
		NewCardsPerDay:         s.cfg.NewCardsPerDay,
		CurrentIndex:           s.index,
		DueCards:               s.dueCount,
	}
}
